package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"campus-rentals-backend/internal/domain"
	"campus-rentals-backend/internal/logger"
	"campus-rentals-backend/internal/relay"
	"campus-rentals-backend/internal/repository"
)

const maxMessageLength = 2000

type messageService struct {
	*lifecycle
}

func NewMessageService(rentalRepo repository.RentalRepository, relay MessageRelay) MessageService {
	return &messageService{
		lifecycle: &lifecycle{
			rentalRepo: rentalRepo,
			relay:      relay,
			now:        time.Now,
		},
	}
}

// AppendMessage adds text to the rental transcript and then hands it to the
// relay. A relay failure is logged and the message stays persisted.
func (s *messageService) AppendMessage(ctx context.Context, rentalID, senderID uuid.UUID, text string) (*domain.RentalMessage, error) {
	if _, err := s.load(ctx, rentalID); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.InvalidInput("message text is required")
	}
	if utf8.RuneCountInString(text) > maxMessageLength {
		return nil, domain.InvalidInput("message text must be at most %d characters", maxMessageLength)
	}

	msg := &domain.RentalMessage{
		RentalID:  rentalID,
		SenderID:  senderID,
		Text:      text,
		Timestamp: s.now().UTC(),
	}
	if err := s.rentalRepo.AppendMessage(ctx, msg); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFound("rental not found")
		}
		return nil, domain.Internal(err, "failed to append message")
	}
	logger.Debug("Message appended", "rental_id", rentalID, "message_id", msg.ID, "sender_id", senderID)

	s.publish(ctx, rentalID, relay.EventReceiveMessage, msg)
	return msg, nil
}
