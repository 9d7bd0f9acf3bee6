package privacy

import (
	"github.com/samber/lo"

	contractx "github.com/openhearth/hearth/hearth/contract"
)

// FilterForMember keeps the context items a viewing member may see:
// public and agent-inferred unconditionally, subgroup items when the viewer
// belongs to the item's subgroup, private items only for their source member.
func FilterForMember(contexts []contractx.ScopedContext, memberID string, memberSubgroupIDs []string) []contractx.ScopedContext {
	subgroupSet := make(map[string]struct{}, len(memberSubgroupIDs))
	for _, id := range memberSubgroupIDs {
		subgroupSet[id] = struct{}{}
	}

	return lo.Filter(contexts, func(item contractx.ScopedContext, _ int) bool {
		switch item.PrivacyLayer {
		case contractx.LayerPublic, contractx.LayerAgentInferred:
			return true
		case contractx.LayerSubgroup:
			if item.SubgroupID == "" {
				return false
			}
			_, ok := subgroupSet[item.SubgroupID]
			return ok
		case contractx.LayerPrivate:
			return item.SourceMemberID == memberID
		default:
			return false
		}
	})
}

// CanRelay reports whether a single context item may be included in a reply
// addressed to the target member. The rules mirror FilterForMember.
// Agent-inferred content is always relayable, but only its content: pairing
// it with its source identity is caught downstream by the violation scanner,
// not here.
func CanRelay(item contractx.ScopedContext, targetMemberID string, targetSubgroupIDs []string) bool {
	switch item.PrivacyLayer {
	case contractx.LayerPublic, contractx.LayerAgentInferred:
		return true
	case contractx.LayerSubgroup:
		return item.SubgroupID != "" && lo.Contains(targetSubgroupIDs, item.SubgroupID)
	case contractx.LayerPrivate:
		return item.SourceMemberID == targetMemberID
	default:
		return false
	}
}
