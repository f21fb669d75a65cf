package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"k8s.io/klog/v2"

	"github.com/realmarcin/data-api/pkg/cmd/dataapi"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer klog.Flush()

	cmd := dataapi.NewCommand(ctx, os.Stdout, os.Stderr)
	if err := cmd.Execute(); err != nil {
		klog.ErrorS(err, "dataapi failed")
		klog.Flush()
		stop()
		os.Exit(1)
	}
}
