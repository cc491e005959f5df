package domain

import (
	"crypto/subtle"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

type RentalStatus string

// MaxRentalQuantity bounds a single request.
const MaxRentalQuantity int32 = 100

const (
	RentalStatusPending    RentalStatus = "pending"
	RentalStatusApproved   RentalStatus = "approved"
	RentalStatusDenied     RentalStatus = "denied"
	RentalStatusScheduled  RentalStatus = "scheduled"
	RentalStatusInProgress RentalStatus = "in_progress"
	RentalStatusCompleted  RentalStatus = "completed"
	RentalStatusCancelled  RentalStatus = "cancelled"
)

// rentalTransitions is the complete edge set of the lifecycle graph.
// Scheduling is handled separately, see Rental.Schedule.
var rentalTransitions = map[RentalStatus][]RentalStatus{
	RentalStatusPending:    {RentalStatusApproved, RentalStatusDenied, RentalStatusCancelled},
	RentalStatusApproved:   {RentalStatusScheduled, RentalStatusCancelled},
	RentalStatusScheduled:  {RentalStatusInProgress, RentalStatusCancelled},
	RentalStatusInProgress: {RentalStatusCompleted},
}

func (s RentalStatus) IsValid() bool {
	switch s {
	case RentalStatusPending, RentalStatusApproved, RentalStatusDenied, RentalStatusScheduled,
		RentalStatusInProgress, RentalStatusCompleted, RentalStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no lifecycle edge leaves s.
func (s RentalStatus) IsTerminal() bool {
	return len(rentalTransitions[s]) == 0
}

// CanTransitionTo reports whether next is a legal edge from s.
func (s RentalStatus) CanTransitionTo(next RentalStatus) bool {
	for _, to := range rentalTransitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

// HasExchangeTokens reports whether rentals in status s carry pickup/return tokens.
func (s RentalStatus) HasExchangeTokens() bool {
	return s == RentalStatusScheduled || s == RentalStatusInProgress || s == RentalStatusCompleted
}

type Rental struct {
	ID       uuid.UUID `json:"id"`
	ItemID   uuid.UUID `json:"item_id"`
	RenterID uuid.UUID `json:"renter_id"`
	// OwnerID is copied from the item at creation so later item edits cannot
	// change who may decide on the request.
	OwnerID           uuid.UUID       `json:"owner_id"`
	Quantity          int32           `json:"quantity"`
	TotalPriceCents   int64           `json:"total_price_cents"`
	Status            RentalStatus    `json:"status"`
	ScheduledTime     *time.Time      `json:"scheduled_time,omitempty"`
	ScheduledLocation string          `json:"scheduled_location,omitempty"`
	PickupToken       string          `json:"pickup_token,omitempty"`
	ReturnToken       string          `json:"return_token,omitempty"`
	Messages          []RentalMessage `json:"messages"`
	Version           int64           `json:"version"`
	CreatedOn         time.Time       `json:"created_on"`
	UpdatedOn         time.Time       `json:"updated_on"`
}

type RentalMessage struct {
	ID        int64     `json:"id"`
	RentalID  uuid.UUID `json:"rental_id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRental builds a pending rental for item on behalf of renterID. The total
// price is frozen here and never recomputed.
func NewRental(item *Item, renterID uuid.UUID, quantity int32) (*Rental, error) {
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 {
		return nil, InvalidInput("quantity must be at least 1")
	}
	if quantity > MaxRentalQuantity {
		return nil, InvalidInput("quantity must not exceed %d", MaxRentalQuantity)
	}
	if item.OwnerID == renterID {
		return nil, InvalidInput("you cannot rent your own item")
	}
	if item.PriceCents < 0 {
		return nil, InvalidInput("item price must not be negative")
	}
	// Listings stored before the price cap may still be arbitrarily large.
	if item.PriceCents > 0 && int64(quantity) > math.MaxInt64/item.PriceCents {
		return nil, InvalidInput("total price is too large")
	}
	return &Rental{
		ID:              uuid.New(),
		ItemID:          item.ID,
		RenterID:        renterID,
		OwnerID:         item.OwnerID,
		Quantity:        quantity,
		TotalPriceCents: item.PriceCents * int64(quantity),
		Status:          RentalStatusPending,
		Messages:        []RentalMessage{},
	}, nil
}

// IsParty reports whether userID is the renter or the owner.
func (r *Rental) IsParty(userID uuid.UUID) bool {
	return r.RenterID == userID || r.OwnerID == userID
}

// Decide applies the owner's decision to a pending request.
func (r *Rental) Decide(actorID uuid.UUID, decision RentalStatus) error {
	if decision != RentalStatusApproved && decision != RentalStatusDenied {
		return InvalidInput("invalid decision %q", decision)
	}
	if actorID != r.OwnerID {
		return Unauthorized("only the owner can decide on this request")
	}
	if r.Status != RentalStatusPending {
		return InvalidState("request is already '%s'", r.Status)
	}
	r.Status = decision
	return nil
}

// Schedule sets the meeting details and installs a fresh token pair. There is
// no status precondition: either party may (re)schedule at any point, and the
// newest tokens replace older ones.
func (r *Rental) Schedule(at time.Time, location, pickupToken, returnToken string) {
	at = at.UTC()
	r.ScheduledTime = &at
	r.ScheduledLocation = strings.TrimSpace(location)
	r.PickupToken = pickupToken
	r.ReturnToken = returnToken
	r.Status = RentalStatusScheduled
}

// Cancel withdraws the request on behalf of the renter.
func (r *Rental) Cancel(actorID uuid.UUID) error {
	if actorID != r.RenterID {
		return Unauthorized("only the renter can cancel this rental")
	}
	if !r.Status.CanTransitionTo(RentalStatusCancelled) {
		return InvalidState("cannot cancel a rental that is already '%s'", r.Status)
	}
	r.Status = RentalStatusCancelled
	return nil
}

// ConfirmExchange advances the rental if token matches the token expected in
// the current status. Wrong token and wrong status are deliberately
// indistinguishable to the caller.
func (r *Rental) ConfirmExchange(token string) (RentalStatus, error) {
	switch {
	case r.Status == RentalStatusScheduled && tokensEqual(token, r.PickupToken):
		r.Status = RentalStatusInProgress
	case r.Status == RentalStatusInProgress && tokensEqual(token, r.ReturnToken):
		r.Status = RentalStatusCompleted
	default:
		return "", InvalidToken("Invalid or incorrect QR code.")
	}
	return r.Status, nil
}

func tokensEqual(presented, expected string) bool {
	if presented == "" || expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(expected)) == 1
}

// Clone returns a deep copy so callers can mutate without aliasing stored state.
func (r *Rental) Clone() *Rental {
	c := *r
	if r.ScheduledTime != nil {
		t := *r.ScheduledTime
		c.ScheduledTime = &t
	}
	c.Messages = make([]RentalMessage, len(r.Messages))
	copy(c.Messages, r.Messages)
	return &c
}
