package repository

import (
	"context"
	"errors"

	"github.com/PEASEC/Warning-Messenger-Bot/internal/models"
)

// ErrLocationUnknown is returned when a subscription references a
// location id that is no longer in the directory. Callers treat the
// subscription as non-matching, not as a fault.
var ErrLocationUnknown = errors.New("location id not in directory")

// DeliveryRepository is the durable record of which warnings have
// already been delivered to which recipients. Once recorded, a
// (recipient, warning id) pair stays recorded permanently.
type DeliveryRepository interface {
	HasReceived(ctx context.Context, recipientID, warningID string) (bool, error)
	RecordReceived(ctx context.Context, recipientID, warningID string) error
}

// PreferenceRepository holds recipient settings and subscriptions. The
// matching engine only reads; the write operations back the external
// preference surface.
type PreferenceRepository interface {
	ListOptedInRecipients(ctx context.Context) ([]string, error)
	GetRecipient(ctx context.Context, recipientID string) (*models.Recipient, error)
	SetReceiveWarnings(ctx context.Context, recipientID string, enabled bool) error
	SetDefaultSeverity(ctx context.Context, recipientID string, level models.Severity) error

	GetSubscriptions(ctx context.Context, recipientID string) ([]models.Subscription, error)
	// AddSubscription sets the threshold for one (location, category)
	// pair. A SeverityUnknown level means "use the recipient's default".
	AddSubscription(ctx context.Context, recipientID, locationID string, category models.Category, level models.Severity) error
	DeleteSubscription(ctx context.Context, recipientID, locationID string, category models.Category) error

	// Suggestions is the recipient's list of recently used place names,
	// most recent first.
	Suggestions(ctx context.Context, recipientID string) ([]string, error)
	AddSuggestion(ctx context.Context, recipientID, location string) error
}

// LocationDirectory maps location ids to display names.
type LocationDirectory interface {
	ResolveName(ctx context.Context, locationID string) (string, error)
	UpsertLocation(ctx context.Context, locationID, name string) error
}
