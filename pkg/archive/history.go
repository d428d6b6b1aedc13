package archive

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mahaj/harmonium/pkg/id"
	"github.com/mahaj/harmonium/pkg/model"
)

const (
	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000
)

type HistoryHandler struct {
	repo Repository
	log  *slog.Logger
}

func NewHistoryHandler(log *slog.Logger, repo Repository) *HistoryHandler {
	return &HistoryHandler{repo: repo, log: log}
}

// ServeHTTP answers GET /history?channel_id=N[&limit=M].
func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	channelID, err := id.Parse[model.Channel](r.URL.Query().Get("channel_id"))
	if err != nil {
		http.Error(w, "channel_id is required", http.StatusBadRequest)
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(limit, maxHistoryLimit)
	}

	messages, err := h.repo.History(r.Context(), channelID, limit)
	if err != nil {
		h.log.Error("Failed to retrieve history", "channel_id", channelID, "error", err)
		http.Error(w, "Failed to retrieve history", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(messages); err != nil {
		h.log.Warn("Failed to write history", "error", err)
	}
}
