package gangway_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shipyard-dev/gangway"
	"github.com/shipyard-dev/gangway/decisionlog"
	"github.com/shipyard-dev/gangway/store/memory"
)

func newTestEngine(t *testing.T, perms gangway.PermissionSet, opts ...gangway.Option) (*gangway.Engine, *memory.Store) {
	t.Helper()
	st := memory.New()
	opts = append([]gangway.Option{
		gangway.WithStore(st),
		gangway.WithRole(gangway.RoleCollaboratorFull),
	}, opts...)
	eng, err := gangway.NewEngine(perms, opts...)
	if err != nil {
		t.Fatalf("NewEngine error: %v", err)
	}
	return eng, st
}

func TestNewEngineRequiresPermissions(t *testing.T) {
	if _, err := gangway.NewEngine(nil); err == nil {
		t.Fatal("NewEngine(nil) should error")
	}
}

func TestEngineCheckMatchesPermissionSet(t *testing.T) {
	shared := gangway.NewTaskSet("t1")
	perms := gangway.NewDualPermissions(gangway.RoleCollaboratorFull, shared)
	eng, _ := newTestEngine(t, perms)
	ctx := context.Background()

	tests := []struct {
		name string
		req  gangway.CheckRequest
		want bool
	}{
		{
			name: "shared conversation write allowed",
			req: gangway.CheckRequest{
				Document: gangway.DocumentRef{ID: "task-conv:t1:2"},
				Peer:     gangway.Peer{PeerID: "p1", Channel: gangway.ChannelCollab},
				Op:       gangway.OpMutate,
			},
			want: true,
		},
		{
			name: "metadata write denied over collab adapter",
			req: gangway.CheckRequest{
				Document: gangway.DocumentRef{ID: "task-meta:t1:2"},
				Peer:     gangway.Peer{PeerID: "p1", Channel: gangway.ChannelCollab},
				Op:       gangway.OpMutate,
			},
			want: false,
		},
		{
			name: "unshared read denied over collab adapter",
			req: gangway.CheckRequest{
				Document: gangway.DocumentRef{ID: "task-conv:t2:2"},
				Peer:     gangway.Peer{PeerID: "p1", Channel: gangway.ChannelCollab},
				Op:       gangway.OpRead,
			},
			want: false,
		},
		{
			name: "creation allowed",
			req: gangway.CheckRequest{
				Document: gangway.DocumentRef{ID: "task-conv:t3:1"},
				Peer:     gangway.Peer{PeerID: "p1", Channel: gangway.ChannelCollab},
				Op:       gangway.OpCreate,
			},
			want: true,
		},
		{
			name: "deletion denied even for personal adapter",
			req: gangway.CheckRequest{
				Document: gangway.DocumentRef{ID: "task-conv:t1:2"},
				Peer:     gangway.Peer{PeerID: "p1", Channel: gangway.ChannelPersonal},
				Op:       gangway.OpDelete,
			},
			want: false,
		},
		{
			name: "unknown op denied",
			req: gangway.CheckRequest{
				Document: gangway.DocumentRef{ID: "task-conv:t1:2"},
				Peer:     gangway.Peer{PeerID: "p1", Channel: gangway.ChannelPersonal},
				Op:       gangway.OpKind("merge"),
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := eng.Check(ctx, &tt.req)
			if err != nil {
				t.Fatalf("Check error: %v", err)
			}
			if result.Allowed != tt.want {
				t.Errorf("Allowed = %v, want %v", result.Allowed, tt.want)
			}
			wantDecision := gangway.DecisionDeny
			if tt.want {
				wantDecision = gangway.DecisionAllow
			}
			if result.Decision != wantDecision {
				t.Errorf("Decision = %s, want %s", result.Decision, wantDecision)
			}
			if !tt.want && result.Reason == "" {
				t.Error("denied result has no reason")
			}
		})
	}
}

func TestEngineAuditsDecisions(t *testing.T) {
	perms := gangway.NewShipyardPermissions(gangway.RoleViewer)
	eng, st := newTestEngine(t, perms)
	ctx := gangway.WithSession(context.Background(), "sess-1")

	// One allowed read, one denied write.
	eng.Admit(ctx, gangway.DocumentRef{ID: "task-conv:t1:1"},
		gangway.Peer{PeerID: "p1", Channel: gangway.ChannelNetwork}, gangway.OpRead)
	eng.Admit(ctx, gangway.DocumentRef{ID: "task-conv:t1:1"},
		gangway.Peer{PeerID: "p1", Channel: gangway.ChannelNetwork}, gangway.OpMutate)

	entries, err := st.ListEntries(ctx, nil)
	if err != nil {
		t.Fatalf("ListEntries error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d audit entries, want 2", len(entries))
	}

	// Newest first: the denial is the most recent entry.
	denial := entries[0]
	if denial.Allowed {
		t.Error("newest entry should be the denial")
	}
	if denial.SessionID != "sess-1" {
		t.Errorf("SessionID = %q, want %q", denial.SessionID, "sess-1")
	}
	if denial.PeerID != "p1" {
		t.Errorf("PeerID = %q, want %q", denial.PeerID, "p1")
	}
	if denial.Role != string(gangway.RoleCollaboratorFull) {
		t.Errorf("Role = %q, want %q", denial.Role, gangway.RoleCollaboratorFull)
	}
	if denial.Reason == "" {
		t.Error("denial entry has no reason")
	}
}

func TestEngineAuditDeniedOnly(t *testing.T) {
	perms := gangway.NewShipyardPermissions(gangway.RoleViewer)
	cfg := gangway.DefaultConfig()
	cfg.AuditDeniedOnly = true
	eng, st := newTestEngine(t, perms, gangway.WithConfig(cfg))
	ctx := context.Background()

	eng.Admit(ctx, gangway.DocumentRef{ID: "task-conv:t1:1"},
		gangway.Peer{Channel: gangway.ChannelNetwork}, gangway.OpRead) // allowed
	eng.Admit(ctx, gangway.DocumentRef{ID: "task-conv:t1:1"},
		gangway.Peer{Channel: gangway.ChannelNetwork}, gangway.OpMutate) // denied

	n, err := st.CountEntries(ctx, nil)
	if err != nil {
		t.Fatalf("CountEntries error: %v", err)
	}
	if n != 1 {
		t.Errorf("got %d audit entries, want 1 (denials only)", n)
	}
}

func TestEngineAuditDisabled(t *testing.T) {
	perms := gangway.NewShipyardPermissions(gangway.RoleViewer)
	eng, st := newTestEngine(t, perms, gangway.WithConfig(gangway.Config{Audit: false}))
	ctx := context.Background()

	eng.Admit(ctx, gangway.DocumentRef{ID: "task-conv:t1:1"},
		gangway.Peer{Channel: gangway.ChannelNetwork}, gangway.OpMutate)

	n, err := st.CountEntries(ctx, nil)
	if err != nil {
		t.Fatalf("CountEntries error: %v", err)
	}
	if n != 0 {
		t.Errorf("got %d audit entries, want 0", n)
	}
}

func TestEngineEnforce(t *testing.T) {
	perms := gangway.NewShipyardPermissions(gangway.RoleCollaboratorFull)
	eng, _ := newTestEngine(t, perms)
	ctx := context.Background()

	ok := &gangway.CheckRequest{
		Document: gangway.DocumentRef{ID: "task-conv:t1:1"},
		Peer:     gangway.Peer{Channel: gangway.ChannelNetwork},
		Op:       gangway.OpMutate,
	}
	if err := eng.Enforce(ctx, ok); err != nil {
		t.Errorf("Enforce allowed op returned error: %v", err)
	}

	denied := &gangway.CheckRequest{
		Document: gangway.DocumentRef{ID: "task-meta:t1:1"},
		Peer:     gangway.Peer{Channel: gangway.ChannelNetwork},
		Op:       gangway.OpMutate,
	}
	if err := eng.Enforce(ctx, denied); !errors.Is(err, gangway.ErrAccessDenied) {
		t.Errorf("Enforce denied op error = %v, want ErrAccessDenied", err)
	}

	bogus := &gangway.CheckRequest{
		Document: gangway.DocumentRef{ID: "task-conv:t1:1"},
		Peer:     gangway.Peer{Channel: gangway.ChannelNetwork},
		Op:       gangway.OpKind("merge"),
	}
	if err := eng.Enforce(ctx, bogus); !errors.Is(err, gangway.ErrUnknownOp) {
		t.Errorf("Enforce unknown op error = %v, want ErrUnknownOp", err)
	}
}

func TestEngineFiltersByDocument(t *testing.T) {
	perms := gangway.NewShipyardPermissions(gangway.RoleViewer)
	eng, st := newTestEngine(t, perms)
	ctx := context.Background()

	eng.Admit(ctx, gangway.DocumentRef{ID: "task-conv:t1:1"},
		gangway.Peer{Channel: gangway.ChannelNetwork}, gangway.OpMutate)
	eng.Admit(ctx, gangway.DocumentRef{ID: "task-conv:t2:1"},
		gangway.Peer{Channel: gangway.ChannelNetwork}, gangway.OpMutate)

	entries, err := st.ListEntries(ctx, &decisionlog.QueryFilter{DocumentID: "task-conv:t2:1"})
	if err != nil {
		t.Fatalf("ListEntries error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].DocumentID != "task-conv:t2:1" {
		t.Errorf("DocumentID = %q", entries[0].DocumentID)
	}
}

func TestEngineStop(t *testing.T) {
	perms := gangway.NewShipyardPermissions(gangway.RoleOwner)
	eng, _ := newTestEngine(t, perms)
	if err := eng.Stop(context.Background()); err != nil {
		t.Fatalf("Stop error: %v", err)
	}
}
