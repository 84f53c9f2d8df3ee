// Package mongo provides a MongoDB implementation of the gangway
// composite store.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/shipyard-dev/gangway"
	"github.com/shipyard-dev/gangway/decisionlog"
	"github.com/shipyard-dev/gangway/id"
	"github.com/shipyard-dev/gangway/share"
	"github.com/shipyard-dev/gangway/store"
)

// Collection name constants.
const (
	colGrants    = "gangway_grants"
	colDecisions = "gangway_decisions"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a MongoDB implementation of the composite gangway store.
type Store struct {
	client *mongod.Client
	db     *mongod.Database
}

// New creates a new MongoDB store over the named database.
func New(client *mongod.Client, database string) *Store {
	return &Store{client: client, db: client.Database(database)}
}

// Migrate creates indexes for all gangway collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := map[string][]mongod.IndexModel{
		colGrants: {
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "subject_id", Value: 1}, {Key: "revoked_at", Value: 1}}},
			{Keys: bson.D{{Key: "task_id", Value: 1}}},
		},
		colDecisions: {
			{Keys: bson.D{{Key: "session_id", Value: 1}}},
			{Keys: bson.D{{Key: "document_id", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
		},
	}
	for col, models := range indexes {
		if _, err := s.db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("gangway/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongod.ErrNoDocuments)
}

// ──────────────────────────────────────────────────
// Share grant store
// ──────────────────────────────────────────────────

func (s *Store) CreateGrant(ctx context.Context, g *share.Grant) error {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Collection(colGrants).InsertOne(ctx, grantToModel(g))
	if err != nil {
		return fmt.Errorf("gangway/mongo: create grant %s: %w", g.ID, err)
	}
	return nil
}

func (s *Store) GetGrant(ctx context.Context, grantID id.GrantID) (*share.Grant, error) {
	var m grantModel
	err := s.db.Collection(colGrants).
		FindOne(ctx, bson.M{"_id": grantID.String()}).Decode(&m)
	if isNoDocuments(err) {
		return nil, gangway.ErrGrantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("gangway/mongo: get grant %s: %w", grantID, err)
	}
	return m.toGrant()
}

func (s *Store) RevokeGrant(ctx context.Context, grantID id.GrantID) error {
	res, err := s.db.Collection(colGrants).UpdateOne(ctx,
		bson.M{"_id": grantID.String(), "revoked_at": nil},
		bson.M{"$set": bson.M{"revoked_at": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("gangway/mongo: revoke grant %s: %w", grantID, err)
	}
	if res.MatchedCount == 0 {
		if _, getErr := s.GetGrant(ctx, grantID); getErr != nil {
			return getErr
		}
		return gangway.ErrGrantRevoked
	}
	return nil
}

func (s *Store) ListGrants(ctx context.Context, filter *share.ListFilter) ([]*share.Grant, error) {
	q := grantQuery(filter)
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			opts.SetLimit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			opts.SetSkip(int64(filter.Offset))
		}
	}

	cur, err := s.db.Collection(colGrants).Find(ctx, q, opts)
	if err != nil {
		return nil, fmt.Errorf("gangway/mongo: list grants: %w", err)
	}
	defer cur.Close(ctx)

	var grants []*share.Grant
	for cur.Next(ctx) {
		var m grantModel
		if err := cur.Decode(&m); err != nil {
			return nil, fmt.Errorf("gangway/mongo: list grants: %w", err)
		}
		g, err := m.toGrant()
		if err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	return grants, cur.Err()
}

func (s *Store) CountGrants(ctx context.Context, filter *share.ListFilter) (int64, error) {
	n, err := s.db.Collection(colGrants).CountDocuments(ctx, grantQuery(filter))
	if err != nil {
		return 0, fmt.Errorf("gangway/mongo: count grants: %w", err)
	}
	return n, nil
}

func (s *Store) ListActiveTaskIDs(ctx context.Context, ownerID, subjectID string) ([]string, error) {
	raw, err := s.db.Collection(colGrants).Distinct(ctx, "task_id", bson.M{
		"owner_id":   ownerID,
		"subject_id": subjectID,
		"revoked_at": nil,
	}).Raw()
	if err != nil {
		return nil, fmt.Errorf("gangway/mongo: list active task ids: %w", err)
	}

	values, err := raw.Values()
	if err != nil {
		return nil, fmt.Errorf("gangway/mongo: list active task ids: %w", err)
	}
	taskIDs := make([]string, 0, len(values))
	for _, v := range values {
		if t, ok := v.StringValueOK(); ok {
			taskIDs = append(taskIDs, t)
		}
	}
	return taskIDs, nil
}

func grantQuery(filter *share.ListFilter) bson.M {
	q := bson.M{}
	if filter == nil {
		q["revoked_at"] = nil
		return q
	}
	if filter.OwnerID != "" {
		q["owner_id"] = filter.OwnerID
	}
	if filter.SubjectID != "" {
		q["subject_id"] = filter.SubjectID
	}
	if filter.TaskID != "" {
		q["task_id"] = filter.TaskID
	}
	if !filter.IncludeRevoked {
		q["revoked_at"] = nil
	}
	return q
}

// ──────────────────────────────────────────────────
// Decision log store
// ──────────────────────────────────────────────────

func (s *Store) CreateEntry(ctx context.Context, e *decisionlog.Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Collection(colDecisions).InsertOne(ctx, entryToModel(e))
	if err != nil {
		return fmt.Errorf("gangway/mongo: create decision entry %s: %w", e.ID, err)
	}
	return nil
}

func (s *Store) GetEntry(ctx context.Context, entryID id.DecisionID) (*decisionlog.Entry, error) {
	var m entryModel
	err := s.db.Collection(colDecisions).
		FindOne(ctx, bson.M{"_id": entryID.String()}).Decode(&m)
	if isNoDocuments(err) {
		return nil, gangway.ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("gangway/mongo: get decision entry %s: %w", entryID, err)
	}
	return m.toEntry()
}

func (s *Store) ListEntries(ctx context.Context, filter *decisionlog.QueryFilter) ([]*decisionlog.Entry, error) {
	q := entryQuery(filter)
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if filter != nil {
		if filter.Limit > 0 {
			opts.SetLimit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			opts.SetSkip(int64(filter.Offset))
		}
	}

	cur, err := s.db.Collection(colDecisions).Find(ctx, q, opts)
	if err != nil {
		return nil, fmt.Errorf("gangway/mongo: list decision entries: %w", err)
	}
	defer cur.Close(ctx)

	var entries []*decisionlog.Entry
	for cur.Next(ctx) {
		var m entryModel
		if err := cur.Decode(&m); err != nil {
			return nil, fmt.Errorf("gangway/mongo: list decision entries: %w", err)
		}
		e, err := m.toEntry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, cur.Err()
}

func (s *Store) CountEntries(ctx context.Context, filter *decisionlog.QueryFilter) (int64, error) {
	n, err := s.db.Collection(colDecisions).CountDocuments(ctx, entryQuery(filter))
	if err != nil {
		return 0, fmt.Errorf("gangway/mongo: count decision entries: %w", err)
	}
	return n, nil
}

func (s *Store) PurgeEntries(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.Collection(colDecisions).DeleteMany(ctx,
		bson.M{"created_at": bson.M{"$lt": before.UTC()}})
	if err != nil {
		return 0, fmt.Errorf("gangway/mongo: purge decision entries: %w", err)
	}
	return res.DeletedCount, nil
}

func entryQuery(filter *decisionlog.QueryFilter) bson.M {
	q := bson.M{}
	if filter == nil {
		return q
	}
	if filter.SessionID != "" {
		q["session_id"] = filter.SessionID
	}
	if filter.PeerID != "" {
		q["peer_id"] = filter.PeerID
	}
	if filter.Channel != "" {
		q["channel"] = filter.Channel
	}
	if filter.Op != "" {
		q["op"] = filter.Op
	}
	if filter.DocumentID != "" {
		q["document_id"] = filter.DocumentID
	}
	if filter.Allowed != nil {
		q["allowed"] = *filter.Allowed
	}
	created := bson.M{}
	if filter.After != nil {
		created["$gt"] = filter.After.UTC()
	}
	if filter.Before != nil {
		created["$lt"] = filter.Before.UTC()
	}
	if len(created) > 0 {
		q["created_at"] = created
	}
	return q
}
