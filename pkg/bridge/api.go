package bridge

import (
	"embed"
	"encoding/json"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/mahaj/harmonium/pkg/auth"
	"github.com/mahaj/harmonium/pkg/id"
	"github.com/mahaj/harmonium/pkg/model"
	"github.com/samber/lo"
)

//go:embed web
var webFS embed.FS

// Reader is the read side of the store exposed over HTTP.
type Reader interface {
	Channels() []model.Channel
	GetChannel(channelID id.ID[model.Channel]) (model.Channel, bool)
	GetMessage(messageID id.ID[model.Message]) (model.Message, bool)
	CurrentChannel() (id.ID[model.Channel], bool)
}

type ChannelSummary struct {
	ID           id.ID[model.Channel] `json:"id"`
	Name         string               `json:"name"`
	MessageCount int                  `json:"message_count"`
	Current      bool                 `json:"current"`
}

// UI serves the embedded web interface.
func UI() http.Handler {
	sub, err := fs.Sub(webFS, "web")
	if err != nil {
		panic(err)
	}
	return http.FileServerFS(sub)
}

// NewAPI exposes read-only views of the store and the attached UIs.
func NewAPI(log *slog.Logger, reader Reader, presence Presence) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/channels", func(w http.ResponseWriter, r *http.Request) {
		current, hasCurrent := reader.CurrentChannel()
		summaries := lo.Map(reader.Channels(), func(c model.Channel, _ int) ChannelSummary {
			return ChannelSummary{
				ID:           c.ID,
				Name:         c.Name,
				MessageCount: len(c.Messages),
				Current:      hasCurrent && c.ID == current,
			}
		})
		writeJSON(w, log, summaries)
	})

	mux.HandleFunc("GET /api/channels/{id}", func(w http.ResponseWriter, r *http.Request) {
		channelID, err := id.Parse[model.Channel](r.PathValue("id"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		channel, ok := reader.GetChannel(channelID)
		if !ok {
			http.Error(w, "channel not found", http.StatusNotFound)
			return
		}
		writeJSON(w, log, channel)
	})

	mux.HandleFunc("GET /api/messages/{id}", func(w http.ResponseWriter, r *http.Request) {
		messageID, err := id.Parse[model.Message](r.PathValue("id"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		message, ok := reader.GetMessage(messageID)
		if !ok {
			http.Error(w, "message not found", http.StatusNotFound)
			return
		}
		writeJSON(w, log, message)
	})

	mux.HandleFunc("GET /api/sessions", func(w http.ResponseWriter, r *http.Request) {
		sessions, err := presence.Sessions(r.Context())
		if err != nil {
			log.Warn("Failed to fetch presence", "error", err)
			http.Error(w, "Failed to fetch presence", http.StatusInternalServerError)
			return
		}
		writeJSON(w, log, sessions)
	})

	return mux
}

func AuthMiddleware(signer *auth.Signer, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.Header.Get("Authorization")
		if tokenString == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}
		if _, err := signer.ValidateToken(tokenString); err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, log *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("Failed to write response", "error", err)
	}
}
