package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"

	contractx "github.com/openhearth/hearth/hearth/contract"
)

type MemberSummary struct {
	MemberID         string `json:"member_id"`
	Name             string `json:"name"`
	Role             string `json:"role"`
	Timezone         string `json:"timezone,omitempty"`
	PreferredChannel string `json:"preferred_channel,omitempty"`
	IdentityCount    int    `json:"identity_count"`
}

type MembersOutput struct {
	MemberCount int             `json:"member_count"`
	Members     []MemberSummary `json:"members"`
}

type MemberInfoOutput struct {
	MemberID         string                     `json:"member_id"`
	Name             string                     `json:"name"`
	Role             string                     `json:"role"`
	Timezone         string                     `json:"timezone,omitempty"`
	PreferredChannel string                     `json:"preferred_channel,omitempty"`
	Identities       []contractx.ChannelIdentity `json:"identities"`
	Preferences      map[string]any             `json:"preferences,omitempty"`
}

func (c *Catalog) executeMembers(ctx context.Context) (contractx.ToolResult, error) {
	members, err := c.registry.GetAllMembers(ctx)
	if err != nil {
		return contractx.ToolResult{}, err
	}

	summaries := lo.Map(members, func(m contractx.Member, _ int) MemberSummary {
		return MemberSummary{
			MemberID:         m.MemberID,
			Name:             m.Name,
			Role:             string(m.Role),
			Timezone:         m.Timezone,
			PreferredChannel: m.PreferredChannel,
			IdentityCount:    len(m.Identities),
		}
	})

	return contractx.ToolResult{
		Tool: ToolMembers,
		Result: MembersOutput{
			MemberCount: len(members),
			Members:     summaries,
		},
	}, nil
}

// executeMemberInfo looks a member up by exact id, then exact name, then
// partial name, in that priority.
func (c *Catalog) executeMemberInfo(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
	query, err := requireStringArg(args, "query")
	if err != nil {
		return contractx.ToolResult{Tool: ToolMemberInfo, Error: err.Error()}, nil
	}
	queryLower := strings.ToLower(query)

	found, err := c.registry.GetMember(ctx, query)
	if err != nil {
		return contractx.ToolResult{}, err
	}

	if found == nil {
		all, err := c.registry.GetAllMembers(ctx)
		if err != nil {
			return contractx.ToolResult{}, err
		}
		for i := range all {
			if strings.ToLower(all[i].Name) == queryLower {
				found = &all[i]
				break
			}
		}
		if found == nil {
			for i := range all {
				if strings.Contains(strings.ToLower(all[i].Name), queryLower) {
					found = &all[i]
					break
				}
			}
		}
	}

	if found == nil {
		return contractx.ToolResult{
			Tool:  ToolMemberInfo,
			Error: fmt.Sprintf("no member found matching %q", query),
		}, nil
	}

	return contractx.ToolResult{
		Tool: ToolMemberInfo,
		Result: MemberInfoOutput{
			MemberID:         found.MemberID,
			Name:             found.Name,
			Role:             string(found.Role),
			Timezone:         found.Timezone,
			PreferredChannel: found.PreferredChannel,
			Identities:       found.Identities,
			Preferences:      found.Preferences,
		},
	}, nil
}
