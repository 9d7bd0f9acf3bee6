package member

import (
	"context"
	"reflect"
	"testing"
	"time"

	contractx "github.com/openhearth/hearth/hearth/contract"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	registry, err := NewRegistry(t.TempDir())
	if err != nil {
		t.Fatalf("open registry: %v", err)
	}
	t.Cleanup(func() {
		if err := registry.Close(); err != nil {
			t.Errorf("close registry: %v", err)
		}
	})
	return registry
}

func kyle() contractx.Member {
	return contractx.Member{
		MemberID: "member-kyle",
		Name:     "Kyle",
		Role:     contractx.RoleMember,
		Timezone: "America/Chicago",
		Identities: []contractx.ChannelIdentity{
			{Channel: "whatsapp", ID: "+15551234567"},
			{Channel: "discord", ID: "kyle#1234", Username: "kyle"},
		},
		Preferences: map[string]any{"language": "en"},
	}
}

func TestUpsertMemberIdempotent(t *testing.T) {
	t.Parallel()

	registry := newTestRegistry(t)
	ctx := context.Background()
	m := kyle()

	if err := registry.UpsertMember(ctx, m); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := registry.UpsertMember(ctx, m); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := registry.GetMember(ctx, m.MemberID)
	if err != nil {
		t.Fatalf("get member: %v", err)
	}
	if got == nil {
		t.Fatal("expected member, got nil")
	}
	if got.Name != m.Name || got.Role != m.Role || got.Timezone != m.Timezone {
		t.Fatalf("unexpected member fields: %+v", got)
	}
	if !reflect.DeepEqual(got.Identities, m.Identities) {
		t.Fatalf("identity set mismatch: got %+v want %+v", got.Identities, m.Identities)
	}
	if !reflect.DeepEqual(got.Preferences, m.Preferences) {
		t.Fatalf("preferences mismatch: got %+v want %+v", got.Preferences, m.Preferences)
	}

	all, err := registry.GetAllMembers(ctx)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 member after double upsert, got %d", len(all))
	}
}

func TestUpsertMemberReplacesIdentitySet(t *testing.T) {
	t.Parallel()

	registry := newTestRegistry(t)
	ctx := context.Background()
	m := kyle()
	if err := registry.UpsertMember(ctx, m); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	m.Identities = []contractx.ChannelIdentity{
		{Channel: "telegram", ID: "987654"},
	}
	if err := registry.UpsertMember(ctx, m); err != nil {
		t.Fatalf("replacing upsert: %v", err)
	}

	got, err := registry.GetMember(ctx, m.MemberID)
	if err != nil {
		t.Fatalf("get member: %v", err)
	}
	if !reflect.DeepEqual(got.Identities, m.Identities) {
		t.Fatalf("identity set not replaced: got %+v", got.Identities)
	}

	// The old whatsapp binding must be gone.
	stale, err := registry.ResolveByChannelIdentity(ctx, "whatsapp", "+15551234567")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if stale != nil {
		t.Fatalf("expected stale identity to be unbound, resolved %s", stale.MemberID)
	}
}

func TestGetMemberAbsent(t *testing.T) {
	t.Parallel()

	registry := newTestRegistry(t)
	got, err := registry.GetMember(context.Background(), "nope")
	if err != nil {
		t.Fatalf("absent lookup must not error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestResolveByChannelIdentityCaseInsensitive(t *testing.T) {
	t.Parallel()

	registry := newTestRegistry(t)
	ctx := context.Background()
	if err := registry.UpsertMember(ctx, kyle()); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := registry.ResolveByChannelIdentity(ctx, "WhatsApp", "+15551234567")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got == nil || got.MemberID != "member-kyle" {
		t.Fatalf("expected member-kyle, got %+v", got)
	}

	got, err = registry.ResolveByChannelIdentity(ctx, "discord", "KYLE#1234")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got == nil || got.MemberID != "member-kyle" {
		t.Fatalf("expected member-kyle via upper-cased id, got %+v", got)
	}
}

func TestIdentityReassignmentSupersedes(t *testing.T) {
	t.Parallel()

	registry := newTestRegistry(t)
	ctx := context.Background()
	if err := registry.UpsertMember(ctx, kyle()); err != nil {
		t.Fatalf("upsert kyle: %v", err)
	}

	other := contractx.Member{
		MemberID: "member-dana",
		Name:     "Dana",
		Role:     contractx.RoleAdmin,
		Identities: []contractx.ChannelIdentity{
			{Channel: "whatsapp", ID: "+15551234567"},
		},
	}
	if err := registry.UpsertMember(ctx, other); err != nil {
		t.Fatalf("upsert dana: %v", err)
	}

	got, err := registry.ResolveByChannelIdentity(ctx, "whatsapp", "+15551234567")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got == nil || got.MemberID != "member-dana" {
		t.Fatalf("expected binding superseded by member-dana, got %+v", got)
	}
}

func TestRemoveMemberCascades(t *testing.T) {
	t.Parallel()

	registry := newTestRegistry(t)
	ctx := context.Background()
	m := kyle()
	if err := registry.UpsertMember(ctx, m); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := registry.CreateSubgroup(ctx, "whatsapp:group:1", "planning", []string{m.MemberID}); err != nil {
		t.Fatalf("create subgroup: %v", err)
	}

	if err := registry.RemoveMember(ctx, m.MemberID); err != nil {
		t.Fatalf("remove member: %v", err)
	}

	got, err := registry.GetMember(ctx, m.MemberID)
	if err != nil {
		t.Fatalf("get after remove: %v", err)
	}
	if got != nil {
		t.Fatalf("expected member gone, got %+v", got)
	}

	byIdentity, err := registry.ResolveByChannelIdentity(ctx, "whatsapp", "+15551234567")
	if err != nil {
		t.Fatalf("resolve after remove: %v", err)
	}
	if byIdentity != nil {
		t.Fatalf("expected identities removed, resolved %+v", byIdentity)
	}

	subgroups, err := registry.GetSubgroups(ctx, "whatsapp:group:1")
	if err != nil {
		t.Fatalf("get subgroups: %v", err)
	}
	for _, sg := range subgroups {
		for _, id := range sg.MemberIDs {
			if id == m.MemberID {
				t.Fatalf("subgroup %s still references removed member", sg.SubgroupID)
			}
		}
	}
}

func TestSubgroupLifecycle(t *testing.T) {
	t.Parallel()

	registry := newTestRegistry(t)
	ctx := context.Background()
	if err := registry.UpsertMember(ctx, kyle()); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	first, err := registry.CreateSubgroup(ctx, "whatsapp:group:1", "parents", []string{"member-kyle"})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	second, err := registry.CreateSubgroup(ctx, "whatsapp:group:1", "trip", []string{"member-kyle"})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	subgroups, err := registry.GetSubgroups(ctx, "whatsapp:group:1")
	if err != nil {
		t.Fatalf("get subgroups: %v", err)
	}
	if len(subgroups) != 2 {
		t.Fatalf("expected 2 subgroups, got %d", len(subgroups))
	}
	if subgroups[0].SubgroupID != first.SubgroupID || subgroups[1].SubgroupID != second.SubgroupID {
		t.Fatal("subgroups not ordered by creation time")
	}
	if !reflect.DeepEqual(subgroups[0].MemberIDs, []string{"member-kyle"}) {
		t.Fatalf("unexpected membership: %+v", subgroups[0].MemberIDs)
	}

	memberSubgroups, err := registry.SubgroupIDsForMember(ctx, "member-kyle")
	if err != nil {
		t.Fatalf("subgroups for member: %v", err)
	}
	if len(memberSubgroups) != 2 {
		t.Fatalf("expected member in 2 subgroups, got %d", len(memberSubgroups))
	}

	if err := registry.DissolveSubgroup(ctx, first.SubgroupID); err != nil {
		t.Fatalf("dissolve: %v", err)
	}
	subgroups, err = registry.GetSubgroups(ctx, "whatsapp:group:1")
	if err != nil {
		t.Fatalf("get subgroups after dissolve: %v", err)
	}
	if len(subgroups) != 1 || subgroups[0].SubgroupID != second.SubgroupID {
		t.Fatalf("expected only second subgroup, got %+v", subgroups)
	}
}

func TestGetAllMembersOrderedByName(t *testing.T) {
	t.Parallel()

	registry := newTestRegistry(t)
	ctx := context.Background()
	for _, m := range []contractx.Member{
		{MemberID: "m-3", Name: "Zoe", Role: contractx.RoleGuest},
		{MemberID: "m-1", Name: "Alma", Role: contractx.RoleOwner},
		{MemberID: "m-2", Name: "Kyle", Role: contractx.RoleMember},
	} {
		if err := registry.UpsertMember(ctx, m); err != nil {
			t.Fatalf("upsert %s: %v", m.MemberID, err)
		}
	}

	all, err := registry.GetAllMembers(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	names := make([]string, 0, len(all))
	for _, m := range all {
		names = append(names, m.Name)
	}
	if !reflect.DeepEqual(names, []string{"Alma", "Kyle", "Zoe"}) {
		t.Fatalf("unexpected order: %v", names)
	}
}

func TestUpsertMemberRejectsEmptyID(t *testing.T) {
	t.Parallel()

	registry := newTestRegistry(t)
	err := registry.UpsertMember(context.Background(), contractx.Member{Name: "Nobody"})
	if err == nil {
		t.Fatal("expected error for empty member id")
	}
}
