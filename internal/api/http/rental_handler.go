package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"campus-rentals-backend/internal/domain"
)

type createRentalRequest struct {
	ItemID   string `json:"item_id" validate:"required,uuid"`
	Quantity int32  `json:"quantity" validate:"gte=0,lte=100"`
}

type decideRequest struct {
	Decision string `json:"decision" validate:"required"`
}

type scheduleRequest struct {
	ScheduledTime     time.Time `json:"scheduled_time" validate:"required"`
	ScheduledLocation string    `json:"scheduled_location" validate:"required,max=200"`
}

type verifyExchangeRequest struct {
	Token string `json:"token" validate:"required"`
}

type appendMessageRequest struct {
	Text string `json:"text" validate:"required"`
}

type listRentalsResponse struct {
	Rentals    []domain.Rental `json:"rentals"`
	TotalCount int32           `json:"total_count"`
}

type rentalActionResponse struct {
	Message string         `json:"message"`
	Rental  *domain.Rental `json:"rental"`
}

type verifyExchangeResponse struct {
	Success   bool                `json:"success"`
	NewStatus domain.RentalStatus `json:"new_status,omitempty"`
	Message   string              `json:"message"`
	Error     string              `json:"error,omitempty"`
}

func (h *Handler) HandleRequestRental(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req createRentalRequest
	if !decodeBody(w, r, &req) {
		return
	}

	rt, err := h.rentals.RequestRental(r.Context(), userID, uuid.MustParse(req.ItemID), req.Quantity)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, rt)
}

func (h *Handler) HandleListMyRentals(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	page, err := queryInt32(q.Get("page"))
	if err != nil {
		respondError(w, http.StatusBadRequest, string(domain.KindInvalidInput), "page must be an integer")
		return
	}
	pageSize, err := queryInt32(q.Get("page_size"))
	if err != nil {
		respondError(w, http.StatusBadRequest, string(domain.KindInvalidInput), "page_size must be an integer")
		return
	}

	rentals, total, err := h.rentals.ListMyRentals(r.Context(), userID, q.Get("status"), page, pageSize)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if rentals == nil {
		rentals = []domain.Rental{}
	}
	respondJSON(w, http.StatusOK, listRentalsResponse{Rentals: rentals, TotalCount: total})
}

func (h *Handler) HandleGetRental(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	rentalID, ok := pathID(w, r, "rental")
	if !ok {
		return
	}
	rt, err := h.rentals.GetRental(r.Context(), userID, rentalID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rt)
}

func (h *Handler) HandleDecide(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	rentalID, ok := pathID(w, r, "rental")
	if !ok {
		return
	}
	var req decideRequest
	if !decodeBody(w, r, &req) {
		return
	}

	rt, err := h.rentals.Decide(r.Context(), rentalID, userID, domain.RentalStatus(req.Decision))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rentalActionResponse{
		Message: "Request successfully " + req.Decision + ".",
		Rental:  rt,
	})
}

func (h *Handler) HandleSchedule(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerID(w, r); !ok {
		return
	}
	rentalID, ok := pathID(w, r, "rental")
	if !ok {
		return
	}
	var req scheduleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	rt, err := h.rentals.Schedule(r.Context(), rentalID, req.ScheduledTime, req.ScheduledLocation)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rt)
}

func (h *Handler) HandleVerifyExchange(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerID(w, r); !ok {
		return
	}
	rentalID, ok := pathID(w, r, "rental")
	if !ok {
		return
	}
	var req verifyExchangeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.verifier.VerifyExchange(r.Context(), rentalID, req.Token)
	if err != nil {
		kind := domain.KindOf(err)
		if kind == domain.KindInternal {
			respondDomainError(w, r, err)
			return
		}
		respondJSON(w, statusForKind(kind), verifyExchangeResponse{
			Success: false,
			Message: domain.MessageOf(err),
			Error:   string(kind),
		})
		return
	}
	respondJSON(w, http.StatusOK, verifyExchangeResponse{
		Success:   true,
		NewStatus: res.NewStatus,
		Message:   res.Message,
	})
}

func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	rentalID, ok := pathID(w, r, "rental")
	if !ok {
		return
	}

	rt, err := h.rentals.Cancel(r.Context(), rentalID, userID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rentalActionResponse{
		Message: "Rental request has been cancelled.",
		Rental:  rt,
	})
}

// HandleAppendMessage accepts chat from either party. Membership is checked
// here; the message service itself only requires the rental to exist.
func (h *Handler) HandleAppendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	rentalID, ok := pathID(w, r, "rental")
	if !ok {
		return
	}
	var req appendMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if _, err := h.rentals.GetRental(r.Context(), userID, rentalID); err != nil {
		respondDomainError(w, r, err)
		return
	}

	msg, err := h.messages.AppendMessage(r.Context(), rentalID, userID, req.Text)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, msg)
}

func queryInt32(s string) (int32, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 32)
	return int32(n), err
}
