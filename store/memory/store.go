// Package memory provides an in-memory implementation of the gangway
// composite store. It is intended for testing and development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shipyard-dev/gangway"
	"github.com/shipyard-dev/gangway/decisionlog"
	"github.com/shipyard-dev/gangway/id"
	"github.com/shipyard-dev/gangway/share"
	"github.com/shipyard-dev/gangway/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a thread-safe in-memory store for all gangway entities.
type Store struct {
	mu sync.RWMutex

	grants  map[string]*share.Grant
	entries map[string]*decisionlog.Entry
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		grants:  make(map[string]*share.Grant),
		entries: make(map[string]*decisionlog.Entry),
	}
}

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping is a no-op for the memory store.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (s *Store) Close() error { return nil }

// ──────────────────────────────────────────────────
// Share grant store
// ──────────────────────────────────────────────────

func (s *Store) CreateGrant(_ context.Context, g *share.Grant) error {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants[g.ID.String()] = copyGrant(g)
	return nil
}

func (s *Store) GetGrant(_ context.Context, grantID id.GrantID) (*share.Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.grants[grantID.String()]
	if !ok {
		return nil, gangway.ErrGrantNotFound
	}
	return copyGrant(g), nil
}

func (s *Store) RevokeGrant(_ context.Context, grantID id.GrantID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.grants[grantID.String()]
	if !ok {
		return gangway.ErrGrantNotFound
	}
	if g.RevokedAt != nil {
		return gangway.ErrGrantRevoked
	}
	now := time.Now().UTC()
	g.RevokedAt = &now
	return nil
}

func (s *Store) ListGrants(_ context.Context, filter *share.ListFilter) ([]*share.Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*share.Grant, 0, len(s.grants))
	for _, g := range s.grants {
		if !matchGrant(g, filter) {
			continue
		}
		result = append(result, copyGrant(g))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID.String() < result[j].ID.String()
	})
	return paginateGrants(result, filter), nil
}

func (s *Store) CountGrants(_ context.Context, filter *share.ListFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, g := range s.grants {
		if matchGrant(g, filter) {
			n++
		}
	}
	return n, nil
}

func (s *Store) ListActiveTaskIDs(_ context.Context, ownerID, subjectID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	var taskIDs []string
	for _, g := range s.grants {
		if g.OwnerID != ownerID || g.SubjectID != subjectID || g.RevokedAt != nil {
			continue
		}
		if _, dup := seen[g.TaskID]; dup {
			continue
		}
		seen[g.TaskID] = struct{}{}
		taskIDs = append(taskIDs, g.TaskID)
	}
	sort.Strings(taskIDs)
	return taskIDs, nil
}

func matchGrant(g *share.Grant, filter *share.ListFilter) bool {
	if filter == nil {
		// Nil behaves like the zero filter: active grants only.
		return g.RevokedAt == nil
	}
	if filter.OwnerID != "" && g.OwnerID != filter.OwnerID {
		return false
	}
	if filter.SubjectID != "" && g.SubjectID != filter.SubjectID {
		return false
	}
	if filter.TaskID != "" && g.TaskID != filter.TaskID {
		return false
	}
	if !filter.IncludeRevoked && g.RevokedAt != nil {
		return false
	}
	return true
}

func paginateGrants(list []*share.Grant, filter *share.ListFilter) []*share.Grant {
	if filter == nil {
		return list
	}
	if filter.Offset > 0 {
		if filter.Offset >= len(list) {
			return nil
		}
		list = list[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(list) {
		list = list[:filter.Limit]
	}
	return list
}

func copyGrant(g *share.Grant) *share.Grant {
	cp := *g
	if g.RevokedAt != nil {
		t := *g.RevokedAt
		cp.RevokedAt = &t
	}
	return &cp
}

// ──────────────────────────────────────────────────
// Decision log store
// ──────────────────────────────────────────────────

func (s *Store) CreateEntry(_ context.Context, e *decisionlog.Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	s.entries[e.ID.String()] = &cp
	return nil
}

func (s *Store) GetEntry(_ context.Context, entryID id.DecisionID) (*decisionlog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[entryID.String()]
	if !ok {
		return nil, gangway.ErrEntryNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *Store) ListEntries(_ context.Context, filter *decisionlog.QueryFilter) ([]*decisionlog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*decisionlog.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if !matchEntry(e, filter) {
			continue
		}
		cp := *e
		result = append(result, &cp)
	}
	// Newest first. Ids break timestamp ties so the order is stable.
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID.String() > result[j].ID.String()
	})
	return paginateEntries(result, filter), nil
}

func (s *Store) CountEntries(_ context.Context, filter *decisionlog.QueryFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, e := range s.entries {
		if matchEntry(e, filter) {
			n++
		}
	}
	return n, nil
}

func (s *Store) PurgeEntries(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for k, e := range s.entries {
		if e.CreatedAt.Before(before) {
			delete(s.entries, k)
			n++
		}
	}
	return n, nil
}

func matchEntry(e *decisionlog.Entry, filter *decisionlog.QueryFilter) bool {
	if filter == nil {
		return true
	}
	if filter.SessionID != "" && e.SessionID != filter.SessionID {
		return false
	}
	if filter.PeerID != "" && e.PeerID != filter.PeerID {
		return false
	}
	if filter.Channel != "" && e.Channel != filter.Channel {
		return false
	}
	if filter.Op != "" && e.Op != filter.Op {
		return false
	}
	if filter.DocumentID != "" && e.DocumentID != filter.DocumentID {
		return false
	}
	if filter.Allowed != nil && e.Allowed != *filter.Allowed {
		return false
	}
	if filter.After != nil && !e.CreatedAt.After(*filter.After) {
		return false
	}
	if filter.Before != nil && !e.CreatedAt.Before(*filter.Before) {
		return false
	}
	return true
}

func paginateEntries(list []*decisionlog.Entry, filter *decisionlog.QueryFilter) []*decisionlog.Entry {
	if filter == nil {
		return list
	}
	if filter.Offset > 0 {
		if filter.Offset >= len(list) {
			return nil
		}
		list = list[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(list) {
		list = list[:filter.Limit]
	}
	return list
}
