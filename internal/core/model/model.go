package model

import (
	"time"
)

// Client represents a client record in the system.
type Client struct {
	// ID unique identifier of the client. Assigned by persistence.
	ID int64 `json:"id"`

	// FirstName is the client first name.
	FirstName string `json:"first_name"`

	// LastName is the client last name.
	LastName string `json:"last_name"`

	// NIT is the national tax identification number.
	NIT string `json:"nit"`

	// Email is the client email. Empty when absent.
	Email string `json:"email"`

	// IsDeleted marks the client as soft-deleted.
	IsDeleted bool `json:"is_deleted"`

	// CreatedBy is the id of the actor who registered the client.
	CreatedBy int64 `json:"created_by"`

	// CreatedAt is the time at which the client was created in the system.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedBy is the id of the actor who last modified the client.
	UpdatedBy int64 `json:"updated_by"`

	// UpdatedAt is the time at which the client was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// Event types published for client changes.
const (
	ClientCreated = "client.created"
	ClientUpdated = "client.updated"
	ClientDeleted = "client.deleted"
)

// ClientEvent collects a client change. It can represent creation, update and deletion of a client.
type ClientEvent struct {
	// ID is the event id.
	ID string

	// Type is one of ClientCreated, ClientUpdated or ClientDeleted. May be empty on
	// incoming CDC events, in which case it is derived from Before/After.
	Type string

	// Before is the client state before the event. It will be nil in case of creations.
	Before *Client

	// After is the client state after the event. It will be nil in case of deletions.
	After *Client

	// OccurredAt is the time at which the change happened.
	OccurredAt time.Time
}
