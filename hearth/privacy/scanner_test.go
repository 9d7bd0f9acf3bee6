package privacy

import (
	"strings"
	"testing"

	contractx "github.com/openhearth/hearth/hearth/contract"
)

func kyleMembers() []contractx.Member {
	return []contractx.Member{
		{MemberID: "member-kyle", Name: "Kyle", Role: contractx.RoleMember},
		{MemberID: "member-alma", Name: "Alma", Role: contractx.RoleOwner},
	}
}

func kylePrivateContext() []contractx.ScopedContext {
	return []contractx.ScopedContext{
		{
			ContextID:      "ctx-1",
			SourceMemberID: "member-kyle",
			GroupKey:       "whatsapp:group:123",
			PrivacyLayer:   contractx.LayerPrivate,
			Content:        "stressed about money",
		},
	}
}

func TestScanDetectsAttribution(t *testing.T) {
	t.Parallel()

	violations := Scan("Kyle said he's stressed about money", kylePrivateContext(), kyleMembers())
	if len(violations) == 0 {
		t.Fatal("expected at least one violation")
	}
	if !strings.Contains(violations[0], "Kyle") {
		t.Fatalf("violation must name the source member: %s", violations[0])
	}
}

func TestScanAllowsUnattributedText(t *testing.T) {
	t.Parallel()

	violations := Scan("Someone mentioned they're stressed", kylePrivateContext(), kyleMembers())
	if len(violations) != 0 {
		t.Fatalf("expected no violations, got %v", violations)
	}
}

func TestScanIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	violations := Scan("according to KYLE, the budget is tight", kylePrivateContext(), kyleMembers())
	if len(violations) == 0 {
		t.Fatal("expected violation regardless of casing")
	}
}

func TestScanMatchesEachPhraseShape(t *testing.T) {
	t.Parallel()

	texts := []string{
		"Kyle said it",
		"Kyle told me about it",
		"Kyle mentioned the trip",
		"according to Kyle it's fine",
		"Kyle shared some news",
		"that's Kyle's private matter",
		"Kyle privately asked",
	}
	for _, text := range texts {
		if got := Scan(text, kylePrivateContext(), kyleMembers()); len(got) == 0 {
			t.Fatalf("expected violation for %q", text)
		}
	}
}

func TestScanIgnoresNonPrivateContexts(t *testing.T) {
	t.Parallel()

	public := []contractx.ScopedContext{
		{
			ContextID:      "ctx-2",
			SourceMemberID: "member-kyle",
			PrivacyLayer:   contractx.LayerPublic,
			Content:        "likes pizza",
		},
	}
	violations := Scan("Kyle said he likes pizza", public, kyleMembers())
	if len(violations) != 0 {
		t.Fatalf("public context must not trigger violations, got %v", violations)
	}
}

func TestScanSkipsUnknownSourceMember(t *testing.T) {
	t.Parallel()

	unknown := []contractx.ScopedContext{
		{
			ContextID:      "ctx-3",
			SourceMemberID: "member-missing",
			PrivacyLayer:   contractx.LayerPrivate,
			Content:        "secret",
		},
	}
	violations := Scan("Kyle said something", unknown, kyleMembers())
	if len(violations) != 0 {
		t.Fatalf("unknown source member must be skipped, got %v", violations)
	}
}
