package http

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"campus-rentals-backend/internal/domain"
	"campus-rentals-backend/internal/security"
	"campus-rentals-backend/internal/service"
)

// EventSubscriber opens a live feed of a relay channel. The feed closes when
// ctx is done.
type EventSubscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

type Handler struct {
	rentals  service.RentalService
	verifier service.ExchangeVerifier
	messages service.MessageService
	items    service.ItemService
	events   EventSubscriber
}

func NewHandler(
	rentals service.RentalService,
	verifier service.ExchangeVerifier,
	messages service.MessageService,
	items service.ItemService,
	events EventSubscriber,
) *Handler {
	return &Handler{
		rentals:  rentals,
		verifier: verifier,
		messages: messages,
		items:    items,
		events:   events,
	}
}

// NewRouter wires every route behind logging and authentication.
func NewRouter(h *Handler, tm security.TokenManager) *mux.Router {
	router := mux.NewRouter()
	router.Use(LoggingMiddleware)
	router.Use(NewAuthMiddleware(tm).Handler)
	RegisterRoutes(router, h)
	return router
}

func RegisterRoutes(router *mux.Router, h *Handler) {
	router.HandleFunc("/healthz", h.HandleHealth).Methods("GET")

	// my-rentals must be registered ahead of {id}
	router.HandleFunc("/api/rentals", h.HandleRequestRental).Methods("POST")
	router.HandleFunc("/api/rentals/my-rentals", h.HandleListMyRentals).Methods("GET")
	router.HandleFunc("/api/rentals/{id}", h.HandleGetRental).Methods("GET")
	router.HandleFunc("/api/rentals/{id}/decide", h.HandleDecide).Methods("PUT")
	router.HandleFunc("/api/rentals/{id}/schedule", h.HandleSchedule).Methods("PUT")
	router.HandleFunc("/api/rentals/{id}/verify-exchange", h.HandleVerifyExchange).Methods("POST")
	router.HandleFunc("/api/rentals/{id}/cancel", h.HandleCancel).Methods("PUT")
	router.HandleFunc("/api/rentals/{id}/messages", h.HandleAppendMessage).Methods("POST")
	router.HandleFunc("/api/rentals/{id}/events", h.HandleEvents).Methods("GET")

	router.HandleFunc("/api/items", h.HandleCreateItem).Methods("POST")
	router.HandleFunc("/api/items/{id}", h.HandleGetItem).Methods("GET")
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// pathID parses the {id} route variable. Malformed IDs cannot name an
// existing record and are reported as not found.
func pathID(w http.ResponseWriter, r *http.Request, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, string(domain.KindNotFound), what+" not found")
		return uuid.Nil, false
	}
	return id, true
}

func callerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, string(domain.KindUnauthorized), "authentication required")
	}
	return id, ok
}
