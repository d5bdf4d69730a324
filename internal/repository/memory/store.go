// Package memory keeps every repository in process memory. It enforces the
// same uniqueness rules as the PostgreSQL schema so the services behave alike
// on both backends. It does not roll back: a failing transaction keeps the
// writes made before the failure.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"streamnet/internal/model"
	"streamnet/internal/repository"
)

type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	now func() time.Time

	nextUserID    int64
	nextRequestID int64
	nextTicketID  int64

	users       map[int64]*model.User
	friendships map[int64]map[int64]time.Time
	requests    map[int64]*model.FriendRequest
	tickets     map[int64]*model.SupportTicket
}

func NewStore() *Store {
	return &Store{
		now:         time.Now,
		users:       make(map[int64]*model.User),
		friendships: make(map[int64]map[int64]time.Time),
		requests:    make(map[int64]*model.FriendRequest),
		tickets:     make(map[int64]*model.SupportTicket),
	}
}

// SetClock replaces the time source.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// WithTx serialises transactions against each other.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(nil)
}

// Repositories bundles every repository view over one store.
type Repositories = repository.Set

func (s *Store) Repositories() Repositories {
	return Repositories{
		Tx:      s,
		Users:   &userRepo{s: s},
		Friends: &friendRepo{s: s},
		Support: &supportRepo{s: s},
		Stats:   &statsRepo{s: s},
	}
}

// AddDirected writes a single friendship direction, the state an interrupted
// dual write leaves behind.
func (s *Store) AddDirected(userID, friendID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addDirectedLocked(userID, friendID)
}

func (s *Store) addDirectedLocked(userID, friendID int64) bool {
	set, ok := s.friendships[userID]
	if !ok {
		set = make(map[int64]time.Time)
		s.friendships[userID] = set
	}
	if _, exists := set[friendID]; exists {
		return false
	}
	set[friendID] = s.now()
	return true
}

func (s *Store) hasDirectedLocked(userID, friendID int64) bool {
	_, ok := s.friendships[userID][friendID]
	return ok
}

func (s *Store) summaryLocked(id int64) *model.UserSummary {
	u, ok := s.users[id]
	if !ok {
		return nil
	}
	sum := u.Summary()
	return &sum
}

// newestFirst orders by creation time then id, both descending.
func newestFirst(a, b time.Time, aID, bID int64) bool {
	if !a.Equal(b) {
		return a.After(b)
	}
	return aID > bID
}

func sortUsersNewestFirst(users []*model.User) {
	sort.Slice(users, func(i, j int) bool {
		return newestFirst(users[i].CreatedAt, users[j].CreatedAt, users[i].ID, users[j].ID)
	})
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
