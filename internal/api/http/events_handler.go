package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"campus-rentals-backend/internal/domain"
	"campus-rentals-backend/internal/logger"
	"campus-rentals-backend/internal/relay"
)

const keepAliveInterval = 25 * time.Second

// HandleEvents streams a rental's relay channel to one of its parties as
// server-sent events. The subscription is opened before the stream starts so
// nothing published after the first byte is missed.
func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	rentalID, ok := pathID(w, r, "rental")
	if !ok {
		return
	}
	if _, err := h.rentals.GetRental(r.Context(), userID, rentalID); err != nil {
		respondDomainError(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, string(domain.KindInternal), "streaming unsupported")
		return
	}

	ctx := r.Context()
	stream, err := h.events.Subscribe(ctx, relay.RentalChannel(rentalID.String()))
	if err != nil {
		respondDomainError(w, r, domain.Internal(err, "failed to subscribe to rental events"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	log := logger.WithRental(rentalID).With("user_id", userID)
	log.Debug("Event stream opened")
	defer log.Debug("Event stream closed")

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case payload, open := <-stream:
			if !open {
				return
			}
			var ev relay.Event
			if err := json.Unmarshal(payload, &ev); err != nil {
				log.Warn("Dropping malformed relay payload", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, payload)
			flusher.Flush()
		}
	}
}
