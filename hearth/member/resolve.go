package member

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/openhearth/hearth/hearth/contract"
	groupcfgx "github.com/openhearth/hearth/hearth/groupcfg"
)

// Resolution names the member an inbound message came from and the group
// key that governs it.
type Resolution struct {
	Member   contractx.Member
	GroupKey string
}

// ResolveMember maps an inbound message's sender fields to a known member.
//
// Strategy, first match wins:
//  1. registry lookup by channel + sender id (or the fallback "from" field)
//  2. registry lookup by channel + sender username
//  3. registry lookup by channel + sender E.164 phone
//  4. pure config scan when no registry match yielded a group key
//
// A registry match only resolves when one of the member's identities also
// appears in a configured group; the first such group (lexicographic group
// key order) wins. Returns nil when the sender cannot be resolved; callers
// treat an unresolved sender as anonymous rather than aborting.
func ResolveMember(ctx context.Context, in contractx.InboundContext, registry *Registry, groups map[string]groupcfgx.GroupConfig) (*Resolution, error) {
	channel := strings.ToLower(firstNonEmpty(in.Provider, in.OriginatingChannel))
	if channel == "" {
		return nil, nil
	}

	senderID := firstNonEmpty(in.SenderID, in.From)
	for _, candidate := range []string{senderID, in.SenderUsername, in.SenderE164} {
		if candidate == "" {
			continue
		}
		found, err := registry.ResolveByChannelIdentity(ctx, channel, candidate)
		if err != nil {
			return nil, err
		}
		if found == nil {
			continue
		}
		if groupKey := findGroupKeyForMember(groups, *found); groupKey != "" {
			return &Resolution{Member: *found, GroupKey: groupKey}, nil
		}
	}

	return resolveFromConfig(in, groups, channel), nil
}

// findGroupKeyForMember scans configured groups for an identity matching one
// of the member's identities (case-insensitive channel + id).
func findGroupKeyForMember(groups map[string]groupcfgx.GroupConfig, m contractx.Member) string {
	for _, groupKey := range groupcfgx.SortedGroupKeys(groups) {
		for _, memberCfg := range groups[groupKey].Members {
			for _, identity := range memberCfg.Identities {
				if memberHasIdentity(m, identity.Channel, identity.ID) {
					return groupKey
				}
			}
		}
	}
	return ""
}

func memberHasIdentity(m contractx.Member, channel, id string) bool {
	for _, identity := range m.Identities {
		if strings.EqualFold(identity.Channel, channel) && strings.EqualFold(identity.ID, id) {
			return true
		}
	}
	return false
}

// resolveFromConfig matches the sender against declared identities directly,
// so resolution still works before the first registry sync. The synthesized
// member id is deterministic and built from config data, not the registry.
func resolveFromConfig(in contractx.InboundContext, groups map[string]groupcfgx.GroupConfig, channel string) *Resolution {
	senderID := strings.ToLower(firstNonEmpty(in.SenderID, in.From))
	senderUsername := strings.ToLower(in.SenderUsername)
	senderE164 := strings.ToLower(in.SenderE164)

	for _, groupKey := range groupcfgx.SortedGroupKeys(groups) {
		groupConfig := groups[groupKey]
		for _, memberCfg := range groupConfig.Members {
			for _, identity := range memberCfg.Identities {
				if strings.ToLower(identity.Channel) != channel {
					continue
				}
				identityID := strings.ToLower(identity.ID)
				matched := (senderID != "" && identityID == senderID) ||
					(senderUsername != "" && identityID == senderUsername) ||
					(senderE164 != "" && identityID == senderE164) ||
					(identity.Username != "" && senderUsername != "" &&
						strings.ToLower(identity.Username) == senderUsername)
				if !matched {
					continue
				}
				return &Resolution{
					Member: contractx.Member{
						MemberID:         fmt.Sprintf("config:%s:%s", identity.Channel, identity.ID),
						Name:             memberCfg.Name,
						Role:             memberCfg.RoleOrDefault(),
						Timezone:         memberCfg.Timezone,
						PreferredChannel: memberCfg.PreferredChannel,
						Identities:       memberCfg.ContractIdentities(),
						Preferences:      memberCfg.Preferences,
					},
					GroupKey: groupKey,
				}
			}
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
