package gangway

import (
	"reflect"
	"sync"
	"testing"
)

func TestTaskSetMembership(t *testing.T) {
	s := NewTaskSet("t1", "t2")

	if !s.Contains("t1") || !s.Contains("t2") {
		t.Error("initial members missing")
	}
	if s.Contains("t3") {
		t.Error("non-member reported present")
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}

	s.Add("t3")
	if !s.Contains("t3") {
		t.Error("added member missing")
	}
	s.Add("t3") // idempotent
	if s.Len() != 3 {
		t.Errorf("Len after duplicate add = %d, want 3", s.Len())
	}

	s.Remove("t1")
	if s.Contains("t1") {
		t.Error("removed member still present")
	}
	s.Remove("t1") // no-op
	if s.Len() != 2 {
		t.Errorf("Len after double remove = %d, want 2", s.Len())
	}
}

func TestTaskSetIDsSorted(t *testing.T) {
	s := NewTaskSet("zeta", "alpha", "mid")
	got := s.IDs()
	want := []string{"alpha", "mid", "zeta"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("IDs = %v, want %v", got, want)
	}
}

func TestTaskSetReplace(t *testing.T) {
	s := NewTaskSet("t1", "t2")
	s.Replace([]string{"t3"})

	if s.Contains("t1") || s.Contains("t2") {
		t.Error("old members survived Replace")
	}
	if !s.Contains("t3") {
		t.Error("new member missing after Replace")
	}

	s.Replace(nil)
	if s.Len() != 0 {
		t.Errorf("Len after Replace(nil) = %d, want 0", s.Len())
	}
}

func TestTaskSetConcurrent(t *testing.T) {
	s := NewTaskSet()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Add("t1")
				s.Remove("t1")
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Contains("t1")
				s.IDs()
			}
		}()
	}
	wg.Wait()
}
