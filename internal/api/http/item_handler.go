package http

import (
	"net/http"

	"campus-rentals-backend/internal/domain"
)

type createItemRequest struct {
	Title       string `json:"title" validate:"required,max=120"`
	Description string `json:"description" validate:"max=2000"`
	Category    string `json:"category" validate:"required"`
	CourseCode  string `json:"course_code" validate:"max=32"`
	Condition   string `json:"condition" validate:"max=64"`
	PriceCents  int64  `json:"price_cents" validate:"gte=0,lte=100000000"`
	PriceType   string `json:"price_type"`
	IsAvailable *bool  `json:"is_available"`
}

func (h *Handler) HandleCreateItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req createItemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	item := &domain.Item{
		Title:       req.Title,
		Description: req.Description,
		Category:    domain.ItemCategory(req.Category),
		CourseCode:  req.CourseCode,
		Condition:   req.Condition,
		PriceCents:  req.PriceCents,
		PriceType:   domain.ItemPriceType(req.PriceType),
		IsAvailable: req.IsAvailable == nil || *req.IsAvailable,
	}
	if err := h.items.CreateItem(r.Context(), userID, item); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

func (h *Handler) HandleGetItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(w, r, "item")
	if !ok {
		return
	}
	item, err := h.items.GetItem(r.Context(), itemID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}
