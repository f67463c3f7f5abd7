package model

import "time"

// RegisterClientArgs contain the arguments of the RegisterClient method.
type RegisterClientArgs struct {
	// Client carries the caller supplied fields. ID and audit fields are ignored.
	Client Client

	// ActorID identifies the caller performing the registration.
	ActorID int64
}

// RegisterClientResponse contains the response of the RegisterClient method.
type RegisterClientResponse struct {
	// Client is the stored client, including its assigned ID.
	Client Client
}

// UpdateClientArgs contain the arguments of the UpdateClient method.
type UpdateClientArgs struct {
	// ID is the id of the client to be updated.
	ID int64

	// Client carries the new values for the mutable fields.
	Client Client

	// ActorID identifies the caller performing the update.
	ActorID int64
}

// DeleteClientArgs contains the arguments for soft-deleting a client.
type DeleteClientArgs struct {
	// ID is the id of the client to be deleted.
	ID int64

	// ActorID identifies the caller performing the deletion.
	ActorID int64
}

// GetClientResponse contains the response of the GetClient method.
type GetClientResponse struct {
	// Client is nil when the client does not exist or was soft-deleted.
	Client *Client
}

// ListClientsResponse contains the active clients.
type ListClientsResponse struct {
	// Clients are ordered by last name then first name.
	Clients []Client
}

// SearchClientsArgs contain the arguments for the SearchClients use-case.
type SearchClientsArgs struct {
	// Query is matched against nit (case-sensitive) and names (case-insensitive).
	Query string
}

// IssueTokenArgs contain the service-account credentials exchanged for a token.
type IssueTokenArgs struct {
	ClientID     string
	ClientSecret string
}

// IssueTokenResponse contains a signed access token.
type IssueTokenResponse struct {
	AccessToken string
	ExpiresAt   time.Time
}
