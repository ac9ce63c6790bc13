package notifications

import (
	"context"
	"log/slog"
)

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// Service persists notifications and forwards high-priority ones by
// email, best-effort. Notification delivery never fails the caller:
// storage errors propagate only so callers can log them, email errors
// are swallowed here.
type Service struct {
	Store       StoreAPI
	Mailer      Mailer
	DefaultFrom string
}

func New(store StoreAPI, mailer Mailer) *Service {
	return &Service{Store: store, Mailer: mailer, DefaultFrom: "no-reply@orgflow.local"}
}

func (s *Service) Notify(ctx context.Context, recipientID, ntype, priority, title, body string) error {
	n, err := s.Store.Create(ctx, Notification{
		RecipientID: recipientID,
		Type:        ntype,
		Priority:    priority,
		Title:       title,
		Body:        body,
	})
	if err != nil {
		return err
	}

	if s.Mailer == nil || n.Priority != PriorityHigh {
		return nil
	}
	email, err := s.Store.RecipientEmail(ctx, recipientID)
	if err != nil {
		slog.Warn("notification email lookup failed", "recipient", recipientID, "err", err)
		return nil
	}
	if email == "" {
		return nil
	}
	if err := s.Mailer.Send(ctx, s.DefaultFrom, email, title, body); err != nil {
		slog.Warn("notification email send failed", "recipient", recipientID, "err", err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, recipientID string, limit, offset int) ([]Notification, error) {
	return s.Store.ListForRecipient(ctx, recipientID, limit, offset)
}

func (s *Service) CountUnread(ctx context.Context, recipientID string) (int, error) {
	return s.Store.CountUnread(ctx, recipientID)
}

func (s *Service) MarkRead(ctx context.Context, recipientID, notificationID string) error {
	return s.Store.MarkRead(ctx, recipientID, notificationID)
}
