package transport

import (
	"context"

	"github.com/PEASEC/Warning-Messenger-Bot/internal/models"
)

// Deliverer hands a matched warning to the external chat transport.
// Implementations must tolerate duplicate sends: the engine retries a
// pair in a later cycle whenever Deliver returns an error, and a crash
// between a successful send and the dedup record being written can
// replay the send once.
type Deliverer interface {
	Deliver(ctx context.Context, recipientID string, warning models.Warning) error
}
