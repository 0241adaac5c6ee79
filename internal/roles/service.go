package roles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/odyssey-erp/roledesk/internal/platform/kv"
	"github.com/odyssey-erp/roledesk/internal/shared"
)

// SlotKey is the storage key holding the serialised role collection.
const SlotKey = "roles"

type roleInput struct {
	Name string `json:"name" validate:"required"`
}

// Store owns the role collection and writes it back whole after every
// mutation.
type Store struct {
	mu        sync.RWMutex
	slot      *kv.Slot[Role]
	logger    *slog.Logger
	listeners []shared.Listener
	roles     []Role
	seq       int64
	loaded    bool
}

// NewStore builds a Store and loads the persisted collection.
func NewStore(ctx context.Context, store kv.Store, logger *slog.Logger, listeners ...shared.Listener) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		slot:      kv.NewSlot[Role](store, SlotKey),
		logger:    logger,
		listeners: listeners,
		roles:     []Role{},
	}
	s.Load(ctx)
	return s
}

// Load re-reads the collection from storage. Missing or corrupt data yields
// an empty collection. When the backend cannot be read the current
// collection is kept and mutations retry the read before writing.
func (s *Store) Load(ctx context.Context) []Role {
	items, seq, err := s.fetch(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.logger.WarnContext(ctx, "roles: load failed, keeping current collection", slog.Any("error", err))
		return cloneRoles(s.roles)
	}
	s.roles, s.seq, s.loaded = items, seq, true
	return cloneRoles(s.roles)
}

func (s *Store) fetch(ctx context.Context) ([]Role, int64, error) {
	items, seq, err := s.slot.Load(ctx)
	switch {
	case err == nil:
		return items, seq, nil
	case errors.Is(err, kv.ErrMissing):
		return []Role{}, 0, nil
	case errors.Is(err, kv.ErrCorrupt):
		s.logger.WarnContext(ctx, "roles: load degraded to empty collection", slog.Any("error", err))
		return []Role{}, 0, nil
	}
	return nil, 0, err
}

// ensureLoaded retries a failed load so a write never replaces data it has
// not read. Callers hold mu.
func (s *Store) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	items, seq, err := s.fetch(ctx)
	if err != nil {
		return err
	}
	s.roles, s.seq, s.loaded = items, seq, true
	return nil
}

// List returns a copy of the current collection in insertion order.
func (s *Store) List() []Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneRoles(s.roles)
}

// Get returns the role with id.
func (s *Store) Get(id int64) (Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOf(s.roles, id); i >= 0 {
		return s.roles[i].clone(), nil
	}
	return Role{}, fmt.Errorf("roles: role %d: %w", id, shared.ErrNotFound)
}

// Create appends a new role and persists the collection.
func (s *Store) Create(ctx context.Context, name string, perms Permissions) (Role, error) {
	in := roleInput{Name: strings.TrimSpace(name)}
	if err := shared.Validate(in); err != nil {
		return Role{}, fmt.Errorf("roles: create: %w", err)
	}

	s.mu.Lock()
	if err := s.ensureLoaded(ctx); err != nil {
		s.mu.Unlock()
		return Role{}, fmt.Errorf("roles: create: %w", err)
	}
	role := Role{
		ID:          kv.NextID(s.seq, maxID(s.roles)),
		Name:        in.Name,
		Permissions: perms.normalized(),
	}
	next := append(cloneRoles(s.roles), role)
	if err := s.commit(ctx, next, role.ID); err != nil {
		s.mu.Unlock()
		return Role{}, fmt.Errorf("roles: create: %w", err)
	}
	s.mu.Unlock()

	s.notify(ctx, shared.OpCreate, role.ID)
	return role.clone(), nil
}

// Update replaces name and permissions of role id, keeping its position.
func (s *Store) Update(ctx context.Context, id int64, name string, perms Permissions) (Role, error) {
	in := roleInput{Name: strings.TrimSpace(name)}
	if err := shared.Validate(in); err != nil {
		return Role{}, fmt.Errorf("roles: update %d: %w", id, err)
	}

	s.mu.Lock()
	if err := s.ensureLoaded(ctx); err != nil {
		s.mu.Unlock()
		return Role{}, fmt.Errorf("roles: update %d: %w", id, err)
	}
	i := indexOf(s.roles, id)
	if i < 0 {
		s.mu.Unlock()
		return Role{}, fmt.Errorf("roles: role %d: %w", id, shared.ErrNotFound)
	}
	next := cloneRoles(s.roles)
	next[i].Name = in.Name
	next[i].Permissions = perms.normalized()
	updated := next[i].clone()
	if err := s.commit(ctx, next, s.seq); err != nil {
		s.mu.Unlock()
		return Role{}, fmt.Errorf("roles: update %d: %w", id, err)
	}
	s.mu.Unlock()

	s.notify(ctx, shared.OpUpdate, id)
	return updated, nil
}

// Delete removes role id when present. Users referencing it are left alone.
func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	if err := s.ensureLoaded(ctx); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("roles: delete %d: %w", id, err)
	}
	next := make([]Role, 0, len(s.roles))
	for _, r := range s.roles {
		if r.ID != id {
			next = append(next, r.clone())
		}
	}
	removed := len(next) != len(s.roles)
	if err := s.commit(ctx, next, s.seq); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("roles: delete %d: %w", id, err)
	}
	s.mu.Unlock()

	if removed {
		s.notify(ctx, shared.OpDelete, id)
	}
	return nil
}

// commit persists next and, only on success, swaps it in. Callers hold mu.
func (s *Store) commit(ctx context.Context, next []Role, seq int64) error {
	if err := s.slot.Save(ctx, next, seq); err != nil {
		return err
	}
	s.roles, s.seq = next, seq
	return nil
}

func (s *Store) notify(ctx context.Context, op shared.Op, id int64) {
	shared.Notify(ctx, s.listeners, shared.NewChangeEvent(SlotKey, op, id))
}

func indexOf(roles []Role, id int64) int {
	for i, r := range roles {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func maxID(roles []Role) int64 {
	var m int64
	for _, r := range roles {
		if r.ID > m {
			m = r.ID
		}
	}
	return m
}
