// internal/httpserver/webhook.go
//
// Ingress webhook for host/platform event notifications. POST-only; events
// are logged and persisted best-effort for observability, and the response
// is always the fixed acknowledgment.

package httpserver

import (
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// maxWebhookBody bounds how much of an event payload is read and stored.
const maxWebhookBody = 64 * 1024

// mountWebhook registers /webhook. Non-POST methods get a 405 with the same
// JSON shape as the acknowledgment.
func (s *Server) mountWebhook() {
	s.r.HandleFunc("/webhook", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			_, _ = w.Write([]byte(`{"ok":false,"error":"Method Not Allowed"}`))
			return
		}

		body, _ := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		eventType := r.Header.Get("X-Event-Type")

		log.Info().
			Str("event", eventType).
			Int("bytes", len(body)).
			Msg("webhook event")

		// Best-effort persistence; a failed insert never fails the ack.
		if s.db != nil {
			if _, err := s.db.ExecContext(r.Context(), `
				INSERT INTO webhook_events(id, event_type, body, received_at)
				VALUES(?,?,?,?)`,
				uuid.NewString(), eventType, string(body),
				time.Now().UTC().Format(time.RFC3339),
			); err != nil {
				log.Warn().Err(err).Msg("persist webhook event")
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
}
