// Package badger provides an embedded BadgerDB implementation of the
// gangway composite store. Suited to owner daemons with append-heavy
// decision logs: values are CBOR-encoded, keys are prefix-scanned, and
// TypeID ordering makes key order equal time order.
package badger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	badgerdb "github.com/dgraph-io/badger/v3"
	"github.com/fxamacker/cbor/v2"

	"github.com/shipyard-dev/gangway"
	"github.com/shipyard-dev/gangway/decisionlog"
	"github.com/shipyard-dev/gangway/id"
	"github.com/shipyard-dev/gangway/share"
	"github.com/shipyard-dev/gangway/store"
)

// Key prefixes. TypeID suffixes are K-sortable, so iteration over a
// prefix yields records in creation order.
const (
	prefixGrant    = "grant/"
	prefixDecision = "dcsn/"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a BadgerDB implementation of the composite gangway store.
type Store struct {
	db *badgerdb.DB
}

// New creates a store around an existing BadgerDB handle.
func New(db *badgerdb.DB) *Store {
	return &Store{db: db}
}

// Open opens (or creates) a BadgerDB at dir and returns a store around
// it. An empty dir opens an in-memory database for tests.
func Open(dir string) (*Store, error) {
	opts := badgerdb.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("gangway/badger: open %s: %w", dir, err)
	}
	return &Store{db: db}, nil
}

// Migrate is a no-op: BadgerDB is schemaless.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping is a no-op for an embedded database.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

func grantKey(grantID id.GrantID) []byte {
	return []byte(prefixGrant + grantID.String())
}

func decisionKey(entryID id.DecisionID) []byte {
	return []byte(prefixDecision + entryID.String())
}

// ──────────────────────────────────────────────────
// Share grant store
// ──────────────────────────────────────────────────

func (s *Store) CreateGrant(_ context.Context, g *share.Grant) error {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	val, err := cbor.Marshal(grantToModel(g))
	if err != nil {
		return fmt.Errorf("gangway/badger: encode grant %s: %w", g.ID, err)
	}
	err = s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(grantKey(g.ID), val)
	})
	if err != nil {
		return fmt.Errorf("gangway/badger: create grant %s: %w", g.ID, err)
	}
	return nil
}

func (s *Store) GetGrant(_ context.Context, grantID id.GrantID) (*share.Grant, error) {
	var m grantModel
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(grantKey(grantID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return cbor.Unmarshal(val, &m)
		})
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, gangway.ErrGrantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("gangway/badger: get grant %s: %w", grantID, err)
	}
	g, err := m.toGrant()
	if err != nil {
		return nil, fmt.Errorf("gangway/badger: decode grant %s: %w", grantID, err)
	}
	return g, nil
}

func (s *Store) RevokeGrant(ctx context.Context, grantID id.GrantID) error {
	g, err := s.GetGrant(ctx, grantID)
	if err != nil {
		return err
	}
	if g.RevokedAt != nil {
		return gangway.ErrGrantRevoked
	}
	now := time.Now().UTC()
	g.RevokedAt = &now

	val, err := cbor.Marshal(grantToModel(g))
	if err != nil {
		return fmt.Errorf("gangway/badger: encode grant %s: %w", grantID, err)
	}
	err = s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(grantKey(grantID), val)
	})
	if err != nil {
		return fmt.Errorf("gangway/badger: revoke grant %s: %w", grantID, err)
	}
	return nil
}

func (s *Store) ListGrants(_ context.Context, filter *share.ListFilter) ([]*share.Grant, error) {
	var grants []*share.Grant
	err := s.scanGrants(func(g *share.Grant) {
		if matchGrant(g, filter) {
			grants = append(grants, g)
		}
	})
	if err != nil {
		return nil, err
	}
	return paginateGrants(grants, filter), nil
}

func (s *Store) CountGrants(_ context.Context, filter *share.ListFilter) (int64, error) {
	var n int64
	err := s.scanGrants(func(g *share.Grant) {
		if matchGrant(g, filter) {
			n++
		}
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) ListActiveTaskIDs(_ context.Context, ownerID, subjectID string) ([]string, error) {
	seen := make(map[string]struct{})
	var taskIDs []string
	err := s.scanGrants(func(g *share.Grant) {
		if g.OwnerID != ownerID || g.SubjectID != subjectID || g.RevokedAt != nil {
			return
		}
		if _, dup := seen[g.TaskID]; dup {
			return
		}
		seen[g.TaskID] = struct{}{}
		taskIDs = append(taskIDs, g.TaskID)
	})
	if err != nil {
		return nil, err
	}
	return taskIDs, nil
}

func (s *Store) scanGrants(visit func(*share.Grant)) error {
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte(prefixGrant)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var m grantModel
				if err := cbor.Unmarshal(val, &m); err != nil {
					return err
				}
				g, err := m.toGrant()
				if err != nil {
					return err
				}
				visit(g)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("gangway/badger: scan grants: %w", err)
	}
	return nil
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

// ──────────────────────────────────────────────────
// Decision log store
// ──────────────────────────────────────────────────

func (s *Store) CreateEntry(_ context.Context, e *decisionlog.Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	val, err := cbor.Marshal(entryToModel(e))
	if err != nil {
		return fmt.Errorf("gangway/badger: encode decision entry %s: %w", e.ID, err)
	}
	err = s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(decisionKey(e.ID), val)
	})
	if err != nil {
		return fmt.Errorf("gangway/badger: create decision entry %s: %w", e.ID, err)
	}
	return nil
}

func (s *Store) GetEntry(_ context.Context, entryID id.DecisionID) (*decisionlog.Entry, error) {
	var m entryModel
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(decisionKey(entryID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return cbor.Unmarshal(val, &m)
		})
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, gangway.ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("gangway/badger: get decision entry %s: %w", entryID, err)
	}
	e, err := m.toEntry()
	if err != nil {
		return nil, fmt.Errorf("gangway/badger: decode decision entry %s: %w", entryID, err)
	}
	return e, nil
}

func (s *Store) ListEntries(_ context.Context, filter *decisionlog.QueryFilter) ([]*decisionlog.Entry, error) {
	var entries []*decisionlog.Entry
	err := s.scanEntries(func(e *decisionlog.Entry) {
		if matchEntry(e, filter) {
			entries = append(entries, e)
		}
	})
	if err != nil {
		return nil, err
	}
	// Newest first. Ids break timestamp ties so the order is stable.
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		}
		return entries[i].ID.String() > entries[j].ID.String()
	})
	return paginateEntries(entries, filter), nil
}

func (s *Store) CountEntries(_ context.Context, filter *decisionlog.QueryFilter) (int64, error) {
	var n int64
	err := s.scanEntries(func(e *decisionlog.Entry) {
		if matchEntry(e, filter) {
			n++
		}
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) PurgeEntries(_ context.Context, before time.Time) (int64, error) {
	var keys [][]byte
	err := s.scanEntries(func(e *decisionlog.Entry) {
		if e.CreatedAt.Before(before) {
			keys = append(keys, decisionKey(e.ID))
		}
	})
	if err != nil {
		return 0, err
	}

	err = s.db.Update(func(txn *badgerdb.Txn) error {
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("gangway/badger: purge decision entries: %w", err)
	}
	return int64(len(keys)), nil
}

// scanEntries visits every decision entry in key order.
func (s *Store) scanEntries(visit func(*decisionlog.Entry)) error {
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte(prefixDecision)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var m entryModel
				if err := cbor.Unmarshal(val, &m); err != nil {
					return err
				}
				e, err := m.toEntry()
				if err != nil {
					return err
				}
				visit(e)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("gangway/badger: scan decision entries: %w", err)
	}
	return nil
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
