package notifications

import "context"

type StoreAPI interface {
	Create(ctx context.Context, n Notification) (Notification, error)
	ListForRecipient(ctx context.Context, recipientID string, limit, offset int) ([]Notification, error)
	CountUnread(ctx context.Context, recipientID string) (int, error)
	MarkRead(ctx context.Context, recipientID, notificationID string) error
	RecipientEmail(ctx context.Context, recipientID string) (string, error)
}
