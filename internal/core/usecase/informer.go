package usecase

import (
	"context"
	"fmt"

	"github.com/rbroggi/clients/internal/core/model"
	"github.com/rbroggi/clients/internal/core/ports"
)

// InformerOptArgs are the optional arguments for building an Informer.
type InformerOptArgs = func(*Informer)

// WithSkipCreations drops creation events. Use it when the service already
// publishes creations itself (publish_on_create), so each insert is announced once.
func WithSkipCreations(skip bool) InformerOptArgs {
	return func(i *Informer) {
		i.skipCreations = skip
	}
}

// NewInformer builds a new informer.
func NewInformer(sender ports.Sender, optArgs ...InformerOptArgs) *Informer {
	i := &Informer{sender: sender}
	for _, opt := range optArgs {
		opt(i)
	}
	return i
}

// Informer adapts CDC events to a public-facing event. It publicly 'informs' about client changes.
type Informer struct {
	sender        ports.Sender
	skipCreations bool
}

// Handle publishes the public view of a client change.
func (i *Informer) Handle(ctx context.Context, clientEvent model.ClientEvent) error {

	// 1. a soft-deletion is an update of the flag. Consumers only need to know the client is gone.
	if clientEvent.Before != nil && clientEvent.After != nil && clientEvent.After.IsDeleted {
		if clientEvent.Before.IsDeleted {
			// change on an already deleted record
			return nil
		}
		clientEvent.After = nil
	}

	// 2. changes restricted to the audit stamps are not worth publishing.
	if samePublic(clientEvent.Before, clientEvent.After) {
		return nil
	}

	clientEvent.Type = eventType(clientEvent)
	if clientEvent.Type == model.ClientCreated && i.skipCreations {
		return nil
	}

	if err := i.sender.Send(ctx, clientEvent); err != nil {
		return fmt.Errorf("error sending client event ID [%s]: %w", clientEvent.ID, err)
	}

	return nil
}

func eventType(event model.ClientEvent) string {
	switch {
	case event.Before == nil:
		return model.ClientCreated
	case event.After == nil:
		return model.ClientDeleted
	default:
		return model.ClientUpdated
	}
}

func samePublic(before *model.Client, after *model.Client) bool {
	if before == nil && after == nil {
		return true
	}
	if before == nil || after == nil {
		return false
	}
	return before.ID == after.ID &&
		before.FirstName == after.FirstName &&
		before.LastName == after.LastName &&
		before.NIT == after.NIT &&
		before.Email == after.Email &&
		before.IsDeleted == after.IsDeleted
}
