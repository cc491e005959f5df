package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"campus-rentals-backend/internal/domain"
	"campus-rentals-backend/internal/logger"
)

const emailSignature = "\n\nBest regards,\nThe Campus Rentals Team"

type mailSender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type emailService struct {
	sender    mailSender
	fromEmail string
	fromName  string
}

func NewEmailService(apiKey, fromEmail, fromName string) EmailService {
	return &emailService{
		sender:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *emailService) send(ctx context.Context, to, subject, body string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	message := mail.NewSingleEmail(from, subject, mail.NewEmail("", to), body+emailSignature, "")

	logger.ExternalServiceCall("sendgrid", "send", "to", to, "subject", subject)
	response, err := s.sender.SendWithContext(ctx, message)
	if err == nil && response.StatusCode >= 400 {
		err = errors.Newf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	logger.ExternalServiceResult("sendgrid", "send", err, "to", to)
	if err != nil {
		return errors.Wrap(err, "failed to send email")
	}
	return nil
}

func (s *emailService) SendRentalRequestNotification(ctx context.Context, ownerEmail, renterName, itemTitle string) error {
	subject := fmt.Sprintf("New rental request for %s", itemTitle)
	body := fmt.Sprintf("Hello,\n\n%s would like to rent your %s. Open the app to approve or deny the request.", renterName, itemTitle)
	return s.send(ctx, ownerEmail, subject, body)
}

func (s *emailService) SendRentalDecisionNotification(ctx context.Context, renterEmail, itemTitle string, decision domain.RentalStatus) error {
	subject := fmt.Sprintf("Your rental request for %s was %s", itemTitle, decision)
	body := fmt.Sprintf("Hello,\n\nThe owner has %s your request to rent %s.", decision, itemTitle)
	if decision == domain.RentalStatusApproved {
		body += " Message the owner to agree on a time and place for the pickup."
	}
	return s.send(ctx, renterEmail, subject, body)
}

func (s *emailService) SendExchangeScheduledNotification(ctx context.Context, email, itemTitle string, at time.Time, location string) error {
	subject := fmt.Sprintf("Exchange scheduled for %s", itemTitle)
	body := fmt.Sprintf("Hello,\n\nThe exchange for %s is set for %s at %s. Have the QR code ready when you meet.",
		itemTitle, at.UTC().Format(time.RFC1123), location)
	return s.send(ctx, email, subject, body)
}

func (s *emailService) SendRentalCancellationNotification(ctx context.Context, ownerEmail, renterName, itemTitle string) error {
	subject := fmt.Sprintf("Rental of %s cancelled", itemTitle)
	body := fmt.Sprintf("Hello,\n\n%s has cancelled the rental request for %s.", renterName, itemTitle)
	return s.send(ctx, ownerEmail, subject, body)
}

func (s *emailService) SendRentalCompletedNotification(ctx context.Context, email, itemTitle string) error {
	subject := fmt.Sprintf("Rental of %s completed", itemTitle)
	body := fmt.Sprintf("Hello,\n\nThe return of %s has been confirmed and the rental is complete.", itemTitle)
	return s.send(ctx, email, subject, body)
}

func (s *emailService) SendExchangeReminder(ctx context.Context, email, itemTitle string, at time.Time, location string) error {
	subject := fmt.Sprintf("Reminder: exchange for %s", itemTitle)
	body := fmt.Sprintf("Hello,\n\nThis is a reminder that the exchange for %s is at %s at %s.",
		itemTitle, at.UTC().Format(time.RFC1123), location)
	return s.send(ctx, email, subject, body)
}

// logEmailService writes emails to the log instead of sending them. It is
// used when no SendGrid key is configured.
type logEmailService struct{}

func NewLogEmailService() EmailService {
	return logEmailService{}
}

func (logEmailService) log(kind, to string, args ...any) error {
	logger.Info("Email suppressed", append([]any{"kind", kind, "to", to}, args...)...)
	return nil
}

func (l logEmailService) SendRentalRequestNotification(_ context.Context, ownerEmail, renterName, itemTitle string) error {
	return l.log("rental_request", ownerEmail, "renter", renterName, "item", itemTitle)
}

func (l logEmailService) SendRentalDecisionNotification(_ context.Context, renterEmail, itemTitle string, decision domain.RentalStatus) error {
	return l.log("rental_decision", renterEmail, "item", itemTitle, "decision", decision)
}

func (l logEmailService) SendExchangeScheduledNotification(_ context.Context, email, itemTitle string, at time.Time, location string) error {
	return l.log("exchange_scheduled", email, "item", itemTitle, "at", at, "location", location)
}

func (l logEmailService) SendRentalCancellationNotification(_ context.Context, ownerEmail, renterName, itemTitle string) error {
	return l.log("rental_cancelled", ownerEmail, "renter", renterName, "item", itemTitle)
}

func (l logEmailService) SendRentalCompletedNotification(_ context.Context, email, itemTitle string) error {
	return l.log("rental_completed", email, "item", itemTitle)
}

func (l logEmailService) SendExchangeReminder(_ context.Context, email, itemTitle string, at time.Time, location string) error {
	return l.log("exchange_reminder", email, "item", itemTitle, "at", at, "location", location)
}
