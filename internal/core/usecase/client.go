package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rbroggi/clients/internal/core/model"
	"github.com/rbroggi/clients/internal/core/ports"
	"github.com/rbroggi/clients/internal/core/validator"
)

const validationFailedMessage = "client validation failed"

// ClientServiceArgs contains the mandatory arguments for the ClientService.
type ClientServiceArgs struct {
	// Repository is the repository for persistance operations.
	Repository ports.Repository
}

// ClientServiceOptArgs are the optional arguments for building a ClientService.
type ClientServiceOptArgs = func(*ClientService)

// WithNowFunc can be used to override the nowFunc. Useful for testing.
func WithNowFunc(nowFunc func() time.Time) ClientServiceOptArgs {
	return func(s *ClientService) {
		s.nowFunc = nowFunc
	}
}

// WithSender makes RegisterClient publish a creation event after persisting.
func WithSender(sender ports.Sender) ClientServiceOptArgs {
	return func(s *ClientService) {
		s.sender = sender
	}
}

// WithPublishErrorHandler receives failures of the creation event. Registration
// succeeds regardless.
func WithPublishErrorHandler(handler func(event model.ClientEvent, err error)) ClientServiceOptArgs {
	return func(s *ClientService) {
		s.onPublishError = handler
	}
}

// NewClientService creates a new ClientService.
func NewClientService(args ClientServiceArgs, optArgs ...ClientServiceOptArgs) *ClientService {
	s := &ClientService{
		repository:     args.Repository,
		nowFunc:        func() time.Time { return time.Now().UTC() },
		onPublishError: func(model.ClientEvent, error) {},
	}
	for _, opt := range optArgs {
		opt(s)
	}
	return s
}

// ClientService gathers the functionality around the client-lifecycle.
type ClientService struct {
	repository     ports.Repository
	sender         ports.Sender
	nowFunc        func() time.Time
	onPublishError func(event model.ClientEvent, err error)
}

// RegisterClient normalizes, validates and stores a new client. It returns a
// *model.ValidationError, model.ErrDuplicateEmail or model.ErrDuplicateTaxID when
// the input is rejected.
func (s *ClientService) RegisterClient(ctx context.Context, args model.RegisterClientArgs) (*model.RegisterClientResponse, error) {
	client := &model.Client{}
	applyNormalized(client, args.Client)

	if err := validate(*client); err != nil {
		return nil, err
	}

	if err := s.checkUniqueness(ctx, client); err != nil {
		return nil, err
	}

	now := s.nowFunc()
	client.IsDeleted = false
	client.CreatedBy = args.ActorID
	client.CreatedAt = now
	client.UpdatedBy = args.ActorID
	client.UpdatedAt = now

	if err := s.repository.CreateClient(ctx, client); err != nil {
		return nil, fmt.Errorf("error saving client in repository: %w", err)
	}

	s.publishCreated(ctx, *client)

	return &model.RegisterClientResponse{Client: *client}, nil
}

// UpdateClient overwrites the mutable fields of an active client. It returns
// model.ErrNotFound if the ID does not correspond to an active client.
func (s *ClientService) UpdateClient(ctx context.Context, args model.UpdateClientArgs) error {
	current, err := s.repository.GetClient(ctx, args.ID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return fmt.Errorf("client with ID %d: %w", args.ID, model.ErrNotFound)
		}
		return fmt.Errorf("error loading client from repository: %w", err)
	}

	applyNormalized(current, args.Client)

	if err := validate(*current); err != nil {
		return err
	}

	if err := s.checkUniqueness(ctx, current); err != nil {
		return err
	}

	current.UpdatedBy = args.ActorID
	current.UpdatedAt = s.nowFunc()

	if err := s.repository.UpdateClient(ctx, current); err != nil {
		return fmt.Errorf("error updating client: %w", err)
	}
	return nil
}

// DeleteClient soft-deletes an active client. It returns model.ErrNotFound if the ID
// does not correspond to an active client.
func (s *ClientService) DeleteClient(ctx context.Context, args model.DeleteClientArgs) error {
	current, err := s.repository.GetClient(ctx, args.ID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return fmt.Errorf("client with ID %d: %w", args.ID, model.ErrNotFound)
		}
		return fmt.Errorf("error loading client from repository: %w", err)
	}

	current.IsDeleted = true
	current.UpdatedBy = args.ActorID
	current.UpdatedAt = s.nowFunc()

	if err := s.repository.DeleteClient(ctx, current); err != nil {
		return fmt.Errorf("error deleting client from repository: %w", err)
	}
	return nil
}

// GetClient returns the active client with the given id. Absence is not an error:
// the response carries a nil Client.
func (s *ClientService) GetClient(ctx context.Context, id int64) (*model.GetClientResponse, error) {
	client, err := s.repository.GetClient(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return &model.GetClientResponse{}, nil
		}
		return nil, fmt.Errorf("error getting client from repository: %w", err)
	}
	return &model.GetClientResponse{Client: client}, nil
}

// ListClients lists all active clients.
func (s *ClientService) ListClients(ctx context.Context) (*model.ListClientsResponse, error) {
	clients, err := s.repository.ListClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing clients on the repository: %w", err)
	}
	return &model.ListClientsResponse{Clients: clients}, nil
}

// SearchClients matches the query as a substring of the nit (case-sensitive) or of
// the first or last name (case-insensitive). A blank query matches nothing.
func (s *ClientService) SearchClients(ctx context.Context, args model.SearchClientsArgs) (*model.ListClientsResponse, error) {
	if strings.TrimSpace(args.Query) == "" {
		return &model.ListClientsResponse{Clients: []model.Client{}}, nil
	}

	all, err := s.ListClients(ctx)
	if err != nil {
		return nil, err
	}

	lowered := strings.ToLower(args.Query)
	matches := make([]model.Client, 0)
	for _, c := range all.Clients {
		if strings.Contains(c.NIT, args.Query) ||
			strings.Contains(strings.ToLower(c.FirstName), lowered) ||
			strings.Contains(strings.ToLower(c.LastName), lowered) {
			matches = append(matches, c)
		}
	}
	return &model.ListClientsResponse{Clients: matches}, nil
}

// checkUniqueness scans the active clients other than client itself for the same
// email or nit.
func (s *ClientService) checkUniqueness(ctx context.Context, client *model.Client) error {
	all, err := s.repository.ListClients(ctx)
	if err != nil {
		return fmt.Errorf("error listing clients on the repository: %w", err)
	}

	if client.Email != "" {
		for _, c := range all {
			if c.ID != client.ID && !c.IsDeleted && strings.EqualFold(strings.TrimSpace(c.Email), client.Email) {
				return model.ErrDuplicateEmail
			}
		}
	}
	if client.NIT != "" {
		for _, c := range all {
			if c.ID != client.ID && !c.IsDeleted && strings.EqualFold(strings.TrimSpace(c.NIT), client.NIT) {
				return model.ErrDuplicateTaxID
			}
		}
	}
	return nil
}

func (s *ClientService) publishCreated(ctx context.Context, client model.Client) {
	if s.sender == nil {
		return
	}
	event := model.ClientEvent{
		ID:         uuid.NewString(),
		Type:       model.ClientCreated,
		After:      &client,
		OccurredAt: client.CreatedAt,
	}
	if err := s.sender.Send(ctx, event); err != nil {
		s.onPublishError(event, fmt.Errorf("error sending client event ID [%s]: %w", event.ID, err))
	}
}

// applyNormalized copies the mutable fields of in into dst, normalized.
func applyNormalized(dst *model.Client, in model.Client) {
	dst.FirstName = normalizeName(in.FirstName)
	dst.LastName = normalizeName(in.LastName)
	dst.Email = normalizeEmail(in.Email)
	dst.NIT = strings.TrimSpace(in.NIT)
}

func normalizeName(s string) string {
	// strings.Fields splits on every unicode.IsSpace rune, NBSP and \v included.
	return strings.Join(strings.Fields(s), " ")
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func validate(c model.Client) error {
	if errs := validator.Validate(c); !errs.Valid() {
		return &model.ValidationError{Message: validationFailedMessage, Fields: errs}
	}
	return nil
}
