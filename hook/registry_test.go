package hook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shipyard-dev/gangway/id"
	"github.com/shipyard-dev/gangway/share"
)

// recordingHook implements every event interface and counts calls.
type recordingHook struct {
	name string
	err  error

	beforeCheck  int
	afterCheck   int
	grantCreated int
	grantRevoked int
	shutdown     int
}

func (h *recordingHook) Name() string { return h.name }

func (h *recordingHook) OnBeforeCheck(context.Context, any) error {
	h.beforeCheck++
	return h.err
}

func (h *recordingHook) OnAfterCheck(context.Context, any, any) error {
	h.afterCheck++
	return h.err
}

func (h *recordingHook) OnGrantCreated(context.Context, *share.Grant) error {
	h.grantCreated++
	return h.err
}

func (h *recordingHook) OnGrantRevoked(context.Context, id.GrantID) error {
	h.grantRevoked++
	return h.err
}

func (h *recordingHook) OnShutdown(context.Context) error {
	h.shutdown++
	return h.err
}

// checkOnlyHook implements only BeforeCheck.
type checkOnlyHook struct {
	beforeCheck int
}

func (h *checkOnlyHook) Name() string { return "check-only" }

func (h *checkOnlyHook) OnBeforeCheck(context.Context, any) error {
	h.beforeCheck++
	return nil
}

func testRegistry() *Registry {
	return NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRegistryDispatch(t *testing.T) {
	r := testRegistry()
	full := &recordingHook{name: "full"}
	partial := &checkOnlyHook{}
	r.Register(full)
	r.Register(partial)

	if len(r.Hooks()) != 2 {
		t.Fatalf("Hooks() = %d, want 2", len(r.Hooks()))
	}

	ctx := context.Background()
	r.EmitBeforeCheck(ctx, nil)
	r.EmitAfterCheck(ctx, nil, nil)
	r.EmitGrantCreated(ctx, &share.Grant{})
	r.EmitGrantRevoked(ctx, id.NewGrantID())
	r.EmitShutdown(ctx)

	if full.beforeCheck != 1 || full.afterCheck != 1 || full.grantCreated != 1 ||
		full.grantRevoked != 1 || full.shutdown != 1 {
		t.Errorf("full hook counts = %+v, want one call per event", full)
	}
	if partial.beforeCheck != 1 {
		t.Errorf("partial hook beforeCheck = %d, want 1", partial.beforeCheck)
	}
}

func TestRegistryHookErrorsNotPropagated(t *testing.T) {
	r := testRegistry()
	failing := &recordingHook{name: "failing", err: errors.New("hook broke")}
	after := &recordingHook{name: "after"}
	r.Register(failing)
	r.Register(after)

	// Emit does not panic and later hooks still run.
	ctx := context.Background()
	r.EmitBeforeCheck(ctx, nil)
	r.EmitShutdown(ctx)

	if after.beforeCheck != 1 || after.shutdown != 1 {
		t.Errorf("hook after a failing hook not notified: %+v", after)
	}
}

func TestRegistryOrder(t *testing.T) {
	r := testRegistry()
	var order []string
	first := &orderHook{name: "first", order: &order}
	second := &orderHook{name: "second", order: &order}
	r.Register(first)
	r.Register(second)

	r.EmitShutdown(context.Background())

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("notification order = %v, want [first second]", order)
	}
}

type orderHook struct {
	name  string
	order *[]string
}

func (h *orderHook) Name() string { return h.name }

func (h *orderHook) OnShutdown(context.Context) error {
	*h.order = append(*h.order, h.name)
	return nil
}
