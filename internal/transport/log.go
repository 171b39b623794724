package transport

import (
	"context"
	"log/slog"

	"github.com/PEASEC/Warning-Messenger-Bot/internal/models"
)

// LogDeliverer writes matched pairs to the log instead of an external
// transport. Used when no webhook is configured, mainly during local
// development; deliveries still count as acknowledged.
type LogDeliverer struct{}

func NewLogDeliverer() *LogDeliverer {
	return &LogDeliverer{}
}

func (l *LogDeliverer) Deliver(_ context.Context, recipientID string, warning models.Warning) error {
	slog.Info("delivery (log transport)",
		"recipient", recipientID,
		"warning", warning.ID,
		"severity", warning.Severity.String(),
		"title", warning.Title,
	)
	return nil
}
