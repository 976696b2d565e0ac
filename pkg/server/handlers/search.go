package handlers

import "net/http"

// Search handles GET /search?q=<query>.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	resp, err := h.eng.Search(query)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Autocomplete handles GET /autocomplete?q=<query>.
func (h *Handlers) Autocomplete(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	suggestions := h.eng.Autocomplete(query)
	if suggestions == nil {
		suggestions = []string{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"suggestions": suggestions,
	})
}

// Suggest handles GET /suggest?q=<query> with fuzzy typo candidates.
func (h *Handlers) Suggest(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	suggestions := h.eng.SuggestTypo(query)
	if suggestions == nil {
		suggestions = []string{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"suggestions": suggestions,
	})
}
