package member

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/openhearth/hearth/hearth/contract"
	groupcfgx "github.com/openhearth/hearth/hearth/groupcfg"
)

// SyncFromConfig reconciles config-declared members into the registry. For
// each member the first declared identity is the matching key: when the
// registry already binds that identity, the existing member id is reused and
// the record is fully overwritten; otherwise a fresh id is minted.
//
// Members declaring no identities get a fresh id on every sync run. That
// breaks idempotence for them and is preserved as-is pending a decision on
// how to key such members (see DESIGN.md).
func SyncFromConfig(ctx context.Context, registry *Registry, groups map[string]groupcfgx.GroupConfig) error {
	synced := 0
	for _, groupKey := range groupcfgx.SortedGroupKeys(groups) {
		groupConfig := groups[groupKey]
		for _, memberCfg := range groupConfig.Members {
			var existing *contractx.Member
			if len(memberCfg.Identities) > 0 {
				primary := memberCfg.Identities[0]
				found, err := registry.ResolveByChannelIdentity(ctx, primary.Channel, primary.ID)
				if err != nil {
					return err
				}
				existing = found
			}

			memberID := uuid.NewString()
			if existing != nil {
				memberID = existing.MemberID
			}

			if err := registry.UpsertMember(ctx, contractx.Member{
				MemberID:         memberID,
				Name:             memberCfg.Name,
				Role:             memberCfg.RoleOrDefault(),
				Timezone:         memberCfg.Timezone,
				PreferredChannel: memberCfg.PreferredChannel,
				Identities:       memberCfg.ContractIdentities(),
				Preferences:      memberCfg.Preferences,
			}); err != nil {
				return err
			}
			synced++
		}
	}

	log.Debug().Int("members", synced).Msg("config sync complete")
	return nil
}
