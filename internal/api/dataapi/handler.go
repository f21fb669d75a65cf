// Package dataapi exposes the taxon, genome and assembly facades as a
// read-only JSON over HTTP service.
package dataapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-logr/logr"

	"github.com/realmarcin/data-api/pkg/assembly"
	"github.com/realmarcin/data-api/pkg/genome"
	"github.com/realmarcin/data-api/pkg/taxon"
	"github.com/realmarcin/data-api/pkg/workspace"
)

// Handler serves the data API over a workspace client.
type Handler struct {
	ws     workspace.Client
	logger logr.Logger
	mux    *http.ServeMux
}

// NewHandler creates the HTTP handler with all /v1 routes registered.
func NewHandler(ws workspace.Client, logger logr.Logger) *Handler {
	h := &Handler{ws: ws, logger: logger, mux: http.NewServeMux()}

	h.mux.HandleFunc("GET /v1/taxon", h.getTaxon)
	h.mux.HandleFunc("GET /v1/taxon/parent", h.getTaxonParent)
	h.mux.HandleFunc("GET /v1/taxon/children", h.getTaxonChildren)
	h.mux.HandleFunc("GET /v1/genome", h.getGenome)
	h.mux.HandleFunc("GET /v1/genome/features", h.getGenomeFeatures)
	h.mux.HandleFunc("GET /v1/assembly", h.getAssembly)
	h.mux.HandleFunc("GET /v1/assembly/contigs", h.getAssemblyContigs)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) getTaxon(w http.ResponseWriter, r *http.Request) {
	tx, ok := h.openTaxon(w, r)
	if !ok {
		return
	}
	resp, err := NewTaxonResponse(r.Context(), tx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.reply(w, resp)
}

func (h *Handler) getTaxonParent(w http.ResponseWriter, r *http.Request) {
	tx, ok := h.openTaxon(w, r)
	if !ok {
		return
	}
	parent, err := tx.GetParent(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if parent == nil {
		h.fail(w, r, workspace.Errorf(workspace.KindNotFound, "get parent", tx.Ref().String(), "taxon has no parent"))
		return
	}
	resp, err := NewTaxonResponse(r.Context(), parent)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.reply(w, resp)
}

func (h *Handler) getTaxonChildren(w http.ResponseWriter, r *http.Request) {
	tx, ok := h.openTaxon(w, r)
	if !ok {
		return
	}
	children, err := tx.GetChildren(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	resp := make([]*TaxonResponse, 0, len(children))
	for _, child := range children {
		c, err := NewTaxonResponse(r.Context(), child)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		resp = append(resp, c)
	}
	h.reply(w, resp)
}

func (h *Handler) getGenome(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.ref(w, r)
	if !ok {
		return
	}
	g, err := genome.NewFromRef(r.Context(), h.ws, ref, genome.WithLogger(h.logger))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	resp, err := NewGenomeResponse(r.Context(), g)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.reply(w, resp)
}

func (h *Handler) getGenomeFeatures(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.ref(w, r)
	if !ok {
		return
	}
	g, err := genome.NewFromRef(r.Context(), h.ws, ref, genome.WithLogger(h.logger))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	features, err := g.GetFeatures(r.Context(), ids(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.reply(w, features)
}

func (h *Handler) getAssembly(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.ref(w, r)
	if !ok {
		return
	}
	a, err := assembly.NewFromRef(r.Context(), h.ws, ref, assembly.WithLogger(h.logger))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	resp, err := NewAssemblyResponse(r.Context(), a)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.reply(w, resp)
}

func (h *Handler) getAssemblyContigs(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.ref(w, r)
	if !ok {
		return
	}
	a, err := assembly.NewFromRef(r.Context(), h.ws, ref, assembly.WithLogger(h.logger))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	contigs, err := a.GetContigs(r.Context(), ids(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.reply(w, contigs)
}

func (h *Handler) openTaxon(w http.ResponseWriter, r *http.Request) (*taxon.API, bool) {
	ref, ok := h.ref(w, r)
	if !ok {
		return nil, false
	}
	tx, err := taxon.NewFromRef(r.Context(), h.ws, ref, taxon.WithLogger(h.logger))
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	return tx, true
}

// ref reads the mandatory ref query parameter.
func (h *Handler) ref(w http.ResponseWriter, r *http.Request) (workspace.Ref, bool) {
	raw := r.URL.Query().Get("ref")
	if raw == "" {
		h.writeError(w, http.StatusBadRequest, "ref query parameter is required")
		return workspace.Ref{}, false
	}
	ref, err := workspace.ParseRef(raw)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return workspace.Ref{}, false
	}
	return ref, true
}

// ids collects the "id" parameters; each may also hold a comma separated list.
func ids(r *http.Request) []string {
	var out []string
	for _, v := range r.URL.Query()["id"] {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				out = append(out, id)
			}
		}
	}
	return out
}

func (h *Handler) reply(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error(err, "Failed to encode response")
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError && !isCanceled(r.Context()) {
		h.logger.Error(err, "Request failed", "path", r.URL.Path, "ref", r.URL.Query().Get("ref"))
	} else {
		h.logger.V(2).Info("Request rejected", "path", r.URL.Path, "status", status, "error", err.Error())
	}
	h.writeError(w, status, err.Error())
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: msg})
}

func isCanceled(ctx context.Context) bool { return ctx.Err() != nil }
