package dataapi

import (
	"net/http"

	"github.com/realmarcin/data-api/pkg/workspace"
)

type errorResponse struct {
	Error string `json:"error"`
}

// StatusFor maps a facade error to the HTTP status returned to clients.
func StatusFor(err error) int {
	switch workspace.KindOf(err) {
	case workspace.KindType:
		return http.StatusUnprocessableEntity
	case workspace.KindNotFound:
		return http.StatusNotFound
	case workspace.KindConnectivity:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
