package gangway

import (
	"sort"
	"sync"
)

// TaskSet is the live set of task ids an owner has shared with a specific
// collaborator. The dual permission composer holds the caller's handle,
// never a copy: membership changes made by the share/session layer are
// visible on the very next permission call, with no re-construction.
//
// Lookups take the read lock so each call observes a consistent snapshot
// of the set at that instant; there is no cross-call atomicity and none is
// needed — membership changes originate from one control path while the
// replication transport reads.
type TaskSet struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

// NewTaskSet creates a TaskSet with the given initial members.
func NewTaskSet(taskIDs ...string) *TaskSet {
	s := &TaskSet{ids: make(map[string]struct{}, len(taskIDs))}
	for _, id := range taskIDs {
		s.ids[id] = struct{}{}
	}
	return s
}

// Add inserts a task id. Adding an existing member is a no-op.
func (s *TaskSet) Add(taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[taskID] = struct{}{}
}

// Remove deletes a task id. Removing a non-member is a no-op.
func (s *TaskSet) Remove(taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ids, taskID)
}

// Contains reports whether taskID is currently a member.
func (s *TaskSet) Contains(taskID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[taskID]
	return ok
}

// Len returns the current number of members.
func (s *TaskSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// IDs returns a sorted snapshot of the current members.
func (s *TaskSet) IDs() []string {
	s.mu.RLock()
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	s.mu.RUnlock()

	sort.Strings(out)
	return out
}

// Replace swaps the entire membership in one locked step. Used when
// re-materializing a set from the share store.
func (s *TaskSet) Replace(taskIDs []string) {
	next := make(map[string]struct{}, len(taskIDs))
	for _, id := range taskIDs {
		next[id] = struct{}{}
	}

	s.mu.Lock()
	s.ids = next
	s.mu.Unlock()
}
