package handlers

import (
	"net/http"

	"github.com/kozaktomas/face-attendance/internal/catalog"
)

// CatalogHandler exposes the loaded identity set and service health.
type CatalogHandler struct {
	catalog *catalog.Catalog
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(c *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: c}
}

// IdentityResponse describes one enrolled identity. Embeddings are not exposed.
type IdentityResponse struct {
	Label  string `json:"label"`
	Origin string `json:"origin,omitempty"`
}

// List handles GET /api/v1/identities.
func (h *CatalogHandler) List(w http.ResponseWriter, _ *http.Request) {
	out := make([]IdentityResponse, 0, h.catalog.Len())
	for i := 0; i < h.catalog.Len(); i++ {
		id := h.catalog.At(i)
		out = append(out, IdentityResponse{Label: id.Label, Origin: id.Origin})
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"dim":        h.catalog.Dim(),
		"identities": out,
	})
}

// Health handles the health check endpoint.
func (h *CatalogHandler) Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"identities": h.catalog.Len(),
	})
}
