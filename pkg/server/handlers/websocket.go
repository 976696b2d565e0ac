package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/mnohosten/paperfind/pkg/engine"
)

// WebSocket upgrader with default buffer sizes. Origin checks are left
// to the CORS policy of the deployment.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// liveSearchRequest is one query-as-you-type message from the client.
type liveSearchRequest struct {
	Query string `json:"query"`
}

// liveSearchResponse carries ranked results plus completions for the
// partially typed query.
type liveSearchResponse struct {
	Type        string                 `json:"type"`
	Query       string                 `json:"query"`
	Results     *engine.SearchResponse `json:"results,omitempty"`
	Completions []string               `json:"completions,omitempty"`
	Error       string                 `json:"error,omitempty"`
}

// LiveSearch handles GET /ws/search: every message with a query string
// is answered with ranked results and autocomplete suggestions.
func (h *Handlers) LiveSearch(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	for {
		var req liveSearchRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read failed", slog.String("error", err.Error()))
			}
			return
		}

		resp := liveSearchResponse{Type: "results", Query: req.Query}

		results, err := h.eng.Search(req.Query)
		switch {
		case errors.Is(err, engine.ErrEmptyQuery):
			resp.Type = "error"
			resp.Error = "empty query"
		case err != nil:
			resp.Type = "error"
			resp.Error = err.Error()
		default:
			resp.Results = results
			resp.Completions = h.eng.Autocomplete(req.Query)
		}

		if err := conn.WriteJSON(resp); err != nil {
			slog.Warn("websocket write failed", slog.String("error", err.Error()))
			return
		}
	}
}
