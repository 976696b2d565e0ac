package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mnohosten/paperfind/pkg/docstore"
	"github.com/mnohosten/paperfind/pkg/engine"
)

// AddDocument handles POST /documents.
func (h *Handlers) AddDocument(w http.ResponseWriter, r *http.Request) {
	var doc engine.Document
	if err := parseJSONBody(r, &doc); err != nil {
		writeError(w, err)
		return
	}

	docID, err := h.eng.AddDocument(&doc)
	if err != nil {
		if errors.Is(err, engine.ErrMissingField) {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"success": false,
				"message": err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "document added",
		"doc_id":  docID,
	})
}

// GetDocument handles GET /documents/{id}.
func (h *Handlers) GetDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "id")

	rec, err := h.eng.Document(docID)
	if errors.Is(err, docstore.ErrNotFound) {
		writeError(w, &NotFoundError{Message: "document not found: " + docID})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}
