package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/odyssey-erp/roledesk/internal/platform/kv"
	"github.com/odyssey-erp/roledesk/internal/roles"
	"github.com/odyssey-erp/roledesk/internal/shared"
)

// SlotKey is the storage key holding the serialised user collection.
const SlotKey = "users"

// RoleNotFound is shown for users whose role no longer exists.
const RoleNotFound = "Role not found"

// RoleSource exposes the current role collection read-only.
type RoleSource interface {
	List() []roles.Role
}

type userInput struct {
	Name   string `json:"name" validate:"required"`
	Email  string `json:"email" validate:"required"`
	RoleID int64  `json:"roleId" validate:"required"`
}

func newUserInput(name, email string, roleID int64) userInput {
	return userInput{Name: strings.TrimSpace(name), Email: strings.TrimSpace(email), RoleID: roleID}
}

// Store owns the user collection. Role ids are weak references: they are
// never checked against the role collection.
type Store struct {
	mu        sync.RWMutex
	slot      *kv.Slot[User]
	roles     RoleSource
	logger    *slog.Logger
	listeners []shared.Listener
	users     []User
	seq       int64
	loaded    bool
}

// NewStore builds a Store and loads the persisted collection.
func NewStore(ctx context.Context, store kv.Store, source RoleSource, logger *slog.Logger, listeners ...shared.Listener) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		slot:      kv.NewSlot[User](store, SlotKey),
		roles:     source,
		logger:    logger,
		listeners: listeners,
		users:     []User{},
	}
	s.Load(ctx)
	return s
}

// Load re-reads the collection from storage. Missing or corrupt data yields
// an empty collection; a backend failure keeps the current one.
func (s *Store) Load(ctx context.Context) []User {
	items, seq, err := s.fetch(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.logger.WarnContext(ctx, "users: load failed, keeping current collection", slog.Any("error", err))
		return append([]User{}, s.users...)
	}
	s.users, s.seq, s.loaded = items, seq, true
	return append([]User{}, s.users...)
}

func (s *Store) fetch(ctx context.Context) ([]User, int64, error) {
	items, seq, err := s.slot.Load(ctx)
	switch {
	case err == nil:
		return items, seq, nil
	case errors.Is(err, kv.ErrMissing):
		return []User{}, 0, nil
	case errors.Is(err, kv.ErrCorrupt):
		s.logger.WarnContext(ctx, "users: load degraded to empty collection", slog.Any("error", err))
		return []User{}, 0, nil
	}
	return nil, 0, err
}

// ensureLoaded retries a failed load before a write. Callers hold mu.
func (s *Store) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	items, seq, err := s.fetch(ctx)
	if err != nil {
		return err
	}
	s.users, s.seq, s.loaded = items, seq, true
	return nil
}

// List returns a copy of the current collection in insertion order.
func (s *Store) List() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]User{}, s.users...)
}

// Get returns the user with id.
func (s *Store) Get(id int64) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOf(s.users, id); i >= 0 {
		return s.users[i], nil
	}
	return User{}, fmt.Errorf("users: user %d: %w", id, shared.ErrNotFound)
}

// Create appends a new user and persists the collection.
func (s *Store) Create(ctx context.Context, name, email string, roleID int64) (User, error) {
	in := newUserInput(name, email, roleID)
	if err := shared.Validate(in); err != nil {
		return User{}, fmt.Errorf("users: create: %w", err)
	}

	s.mu.Lock()
	if err := s.ensureLoaded(ctx); err != nil {
		s.mu.Unlock()
		return User{}, fmt.Errorf("users: create: %w", err)
	}
	user := User{
		ID:     kv.NextID(s.seq, maxID(s.users)),
		Name:   in.Name,
		Email:  in.Email,
		RoleID: in.RoleID,
	}
	next := append(append([]User{}, s.users...), user)
	if err := s.commit(ctx, next, user.ID); err != nil {
		s.mu.Unlock()
		return User{}, fmt.Errorf("users: create: %w", err)
	}
	s.mu.Unlock()

	s.notify(ctx, shared.OpCreate, user.ID)
	return user, nil
}

// Update replaces the fields of user id, keeping its position.
func (s *Store) Update(ctx context.Context, id int64, name, email string, roleID int64) (User, error) {
	in := newUserInput(name, email, roleID)
	if err := shared.Validate(in); err != nil {
		return User{}, fmt.Errorf("users: update %d: %w", id, err)
	}

	s.mu.Lock()
	if err := s.ensureLoaded(ctx); err != nil {
		s.mu.Unlock()
		return User{}, fmt.Errorf("users: update %d: %w", id, err)
	}
	i := indexOf(s.users, id)
	if i < 0 {
		s.mu.Unlock()
		return User{}, fmt.Errorf("users: user %d: %w", id, shared.ErrNotFound)
	}
	next := append([]User{}, s.users...)
	next[i].Name, next[i].Email, next[i].RoleID = in.Name, in.Email, in.RoleID
	updated := next[i]
	if err := s.commit(ctx, next, s.seq); err != nil {
		s.mu.Unlock()
		return User{}, fmt.Errorf("users: update %d: %w", id, err)
	}
	s.mu.Unlock()

	s.notify(ctx, shared.OpUpdate, id)
	return updated, nil
}

// Delete removes user id when present.
func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	if err := s.ensureLoaded(ctx); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("users: delete %d: %w", id, err)
	}
	next := make([]User, 0, len(s.users))
	for _, u := range s.users {
		if u.ID != id {
			next = append(next, u)
		}
	}
	removed := len(next) != len(s.users)
	if err := s.commit(ctx, next, s.seq); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("users: delete %d: %w", id, err)
	}
	s.mu.Unlock()

	if removed {
		s.notify(ctx, shared.OpDelete, id)
	}
	return nil
}

// Summaries lists every user with its resolved role name.
func (s *Store) Summaries() []Summary {
	var current []roles.Role
	if s.roles != nil {
		current = s.roles.List()
	}
	users := s.List()
	out := make([]Summary, len(users))
	for i, u := range users {
		out[i] = Summary{
			ID:       u.ID,
			Name:     u.Name,
			Email:    u.Email,
			RoleID:   u.RoleID,
			RoleName: ResolveRoleName(u, current),
		}
	}
	return out
}

// RoleOptions lists the roles a user can be assigned to, in role order.
func (s *Store) RoleOptions() []RoleOption {
	if s.roles == nil {
		return []RoleOption{}
	}
	current := s.roles.List()
	out := make([]RoleOption, len(current))
	for i, r := range current {
		out[i] = RoleOption{ID: r.ID, Name: r.Name}
	}
	return out
}

// ResolveRoleName returns the name of the user's role in current, or
// RoleNotFound when the reference dangles.
func ResolveRoleName(user User, current []roles.Role) string {
	for _, r := range current {
		if r.ID == user.RoleID {
			return r.Name
		}
	}
	return RoleNotFound
}

func (s *Store) commit(ctx context.Context, next []User, seq int64) error {
	if err := s.slot.Save(ctx, next, seq); err != nil {
		return err
	}
	s.users, s.seq = next, seq
	return nil
}

func (s *Store) notify(ctx context.Context, op shared.Op, id int64) {
	shared.Notify(ctx, s.listeners, shared.NewChangeEvent(SlotKey, op, id))
}

func indexOf(users []User, id int64) int {
	for i, u := range users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

func maxID(users []User) int64 {
	var m int64
	for _, u := range users {
		if u.ID > m {
			m = u.ID
		}
	}
	return m
}
