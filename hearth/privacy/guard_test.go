package privacy

import (
	"context"
	"testing"

	contractx "github.com/openhearth/hearth/hearth/contract"
	sessionx "github.com/openhearth/hearth/hearth/session"
)

type staticMembers []contractx.Member

func (m staticMembers) GetAllMembers(context.Context) ([]contractx.Member, error) {
	return m, nil
}

func TestScanOutboundReply(t *testing.T) {
	t.Parallel()

	tracker := sessionx.NewMemoryTracker()
	tracker.Record("s-1", contractx.ScopedContext{
		ContextID:      "ctx-1",
		SourceMemberID: "member-kyle",
		PrivacyLayer:   contractx.LayerPrivate,
		Content:        "stressed about money",
	})
	members := staticMembers(kyleMembers())
	ctx := context.Background()

	violations, err := ScanOutboundReply(ctx, "Kyle said he's stressed about money", "s-1", tracker, members)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(violations) == 0 {
		t.Fatal("expected violation for attributed reply")
	}

	violations, err = ScanOutboundReply(ctx, "Someone seems stressed lately", "s-1", tracker, members)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(violations) != 0 {
		t.Fatalf("expected clean reply, got %v", violations)
	}

	// Sessions with no private context short-circuit without listing members.
	violations, err = ScanOutboundReply(ctx, "Kyle said hello", "s-other", tracker, members)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if violations != nil {
		t.Fatalf("expected nil for untracked session, got %v", violations)
	}
}
