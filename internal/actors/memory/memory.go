// Package memory keeps clients in process memory. Data does not survive restarts.
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/rbroggi/clients/internal/core/model"
)

// MemoryDB is an in-memory adapter for persistance.
type MemoryDB struct {
	mu      sync.RWMutex
	clients map[int64]model.Client
	lastID  int64
}

// NewMemoryDB creates an empty MemoryDB.
func NewMemoryDB() *MemoryDB {
	return &MemoryDB{clients: make(map[int64]model.Client)}
}

// Ping always succeeds.
func (m *MemoryDB) Ping(ctx context.Context) error {
	return nil
}

// CreateClient stores the client and assigns its ID.
func (m *MemoryDB) CreateClient(ctx context.Context, client *model.Client) error {
	if client == nil {
		return errors.New("nil client passed to create method")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkActiveUnique(*client); err != nil {
		return err
	}
	m.lastID++
	client.ID = m.lastID
	m.clients[client.ID] = *client
	return nil
}

// GetClient returns model.ErrNotFound if the client does not exist or is soft-deleted.
func (m *MemoryDB) GetClient(ctx context.Context, id int64) (*model.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.clients[id]
	if !ok || c.IsDeleted {
		return nil, model.ErrNotFound
	}
	return &c, nil
}

// ListClients lists the active clients ordered by last name then first name.
func (m *MemoryDB) ListClients(ctx context.Context) ([]model.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	res := make([]model.Client, 0, len(m.clients))
	for _, c := range m.clients {
		if !c.IsDeleted {
			res = append(res, c)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].LastName != res[j].LastName {
			return res[i].LastName < res[j].LastName
		}
		if res[i].FirstName != res[j].FirstName {
			return res[i].FirstName < res[j].FirstName
		}
		return res[i].ID < res[j].ID
	})
	return res, nil
}

// UpdateClient overwrites the mutable fields and updater stamp.
func (m *MemoryDB) UpdateClient(ctx context.Context, client *model.Client) error {
	if client == nil {
		return errors.New("nil client passed to update method")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.clients[client.ID]
	if !ok || existing.IsDeleted {
		return model.ErrNotFound
	}
	if err := m.checkActiveUnique(*client); err != nil {
		return err
	}
	existing.FirstName = client.FirstName
	existing.LastName = client.LastName
	existing.NIT = client.NIT
	existing.Email = client.Email
	existing.UpdatedBy = client.UpdatedBy
	existing.UpdatedAt = client.UpdatedAt
	m.clients[client.ID] = existing
	return nil
}

// DeleteClient flags the client as deleted. The record is kept.
func (m *MemoryDB) DeleteClient(ctx context.Context, client *model.Client) error {
	if client == nil {
		return errors.New("nil client passed to delete method")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.clients[client.ID]
	if !ok || existing.IsDeleted {
		return model.ErrNotFound
	}
	existing.IsDeleted = true
	existing.UpdatedBy = client.UpdatedBy
	existing.UpdatedAt = client.UpdatedAt
	m.clients[client.ID] = existing
	return nil
}

// checkActiveUnique mirrors the partial unique indexes of the database actors.
// Callers hold the write lock.
func (m *MemoryDB) checkActiveUnique(client model.Client) error {
	for id, c := range m.clients {
		if id == client.ID || c.IsDeleted {
			continue
		}
		if client.Email != "" && strings.EqualFold(c.Email, client.Email) {
			return model.ErrDuplicateEmail
		}
		if strings.EqualFold(c.NIT, client.NIT) {
			return model.ErrDuplicateTaxID
		}
	}
	return nil
}
