package ports

import (
	"context"

	"github.com/rbroggi/clients/internal/core/model"
)

// Sender is the port for publishing/informing/sending outbound client-events.
type Sender interface {
	// Send sends client-event data.
	Send(ctx context.Context, event model.ClientEvent) error
}
