package privacy

import (
	"fmt"
	"strings"

	contractx "github.com/openhearth/hearth/hearth/contract"
)

// attributionTemplates are the phrase shapes that attribute information to a
// named member. %s is the member's display name, lower-cased.
var attributionTemplates = []string{
	"%s said",
	"%s told",
	"%s mentioned",
	"according to %s",
	"%s shared",
	"%s's private",
	"%s privately",
}

// Scan inspects outbound text for attribution of private-layer context.
// For every private context item it searches, case-insensitively, for the
// source member's name inside the attribution phrases and describes each hit.
//
// This is a heuristic guardrail, not proof of non-leakage: paraphrased
// attribution passes undetected and common names can false-positive. A
// non-empty result means "block or revise", never "verified clean".
func Scan(text string, privateContexts []contractx.ScopedContext, members []contractx.Member) []string {
	var violations []string
	textLower := strings.ToLower(text)

	for _, item := range privateContexts {
		if item.PrivacyLayer != contractx.LayerPrivate {
			continue
		}
		source := findMember(members, item.SourceMemberID)
		if source == nil {
			continue
		}

		nameLower := strings.ToLower(source.Name)
		for _, template := range attributionTemplates {
			phrase := fmt.Sprintf(template, nameLower)
			if strings.Contains(textLower, phrase) {
				violations = append(violations,
					fmt.Sprintf("Potential attribution of private context from %s: %q", source.Name, phrase))
			}
		}
	}
	return violations
}

func findMember(members []contractx.Member, memberID string) *contractx.Member {
	for i := range members {
		if members[i].MemberID == memberID {
			return &members[i]
		}
	}
	return nil
}
