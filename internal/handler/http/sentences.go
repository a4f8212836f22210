package http

import (
	"net/http"

	"github.com/windfall/kidspeech_service/pkg/response"
)

// SentenceCatalog serves practice sentences.
type SentenceCatalog interface {
	List() []string
	Random() string
}

// SentenceHandler handles practice sentence endpoints.
type SentenceHandler struct {
	catalog SentenceCatalog
}

// NewSentenceHandler creates a new SentenceHandler.
func NewSentenceHandler(catalog SentenceCatalog) *SentenceHandler {
	return &SentenceHandler{catalog: catalog}
}

// List handles GET /api/sentences
func (h *SentenceHandler) List(w http.ResponseWriter, r *http.Request) {
	sentences := h.catalog.List()
	response.JSONWithMeta(w, http.StatusOK, sentences, &response.Meta{Total: len(sentences)})
}

// Random handles GET /api/sentences/random
func (h *SentenceHandler) Random(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{
		"sentence": h.catalog.Random(),
	})
}
