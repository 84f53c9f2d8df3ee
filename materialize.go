package gangway

import (
	"context"
	"fmt"

	"github.com/shipyard-dev/gangway/share"
)

// MaterializeTaskSet loads the active grants from ownerID to subjectID
// into a fresh TaskSet suitable for NewDualPermissions.
func MaterializeTaskSet(ctx context.Context, s share.Store, ownerID, subjectID string) (*TaskSet, error) {
	taskIDs, err := s.ListActiveTaskIDs(ctx, ownerID, subjectID)
	if err != nil {
		return nil, fmt.Errorf("gangway: materialize grants for %s→%s: %w", ownerID, subjectID, err)
	}
	return NewTaskSet(taskIDs...), nil
}

// SyncTaskSet refreshes an existing TaskSet handle in place from the
// share store. Any permission set holding the handle observes the new
// membership on its next call; no engine re-construction happens.
func SyncTaskSet(ctx context.Context, s share.Store, ownerID, subjectID string, set *TaskSet) error {
	taskIDs, err := s.ListActiveTaskIDs(ctx, ownerID, subjectID)
	if err != nil {
		return fmt.Errorf("gangway: sync grants for %s→%s: %w", ownerID, subjectID, err)
	}
	set.Replace(taskIDs)
	return nil
}
