package dataapi

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/realmarcin/data-api/internal/config"
)

func newConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the environment variables understood by dataapi",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(c.OutOrStdout(), config.Usage())
			return err
		},
	}
}
