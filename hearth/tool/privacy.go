package tool

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	contractx "github.com/openhearth/hearth/hearth/contract"
	groupcfgx "github.com/openhearth/hearth/hearth/groupcfg"
	privacyx "github.com/openhearth/hearth/hearth/privacy"
)

type ContextCheckOutput struct {
	PrivacyLayer    string `json:"privacy_layer"`
	CanShareInGroup bool   `json:"can_share_in_group"`
	Guidance        string `json:"guidance"`
	Domain          string `json:"domain,omitempty"`
}

type ContextNoteOutput struct {
	Stored       bool   `json:"stored"`
	ContextID    string `json:"context_id"`
	MemberID     string `json:"member_id"`
	PrivacyLayer string `json:"privacy_layer"`
	Domain       string `json:"domain,omitempty"`
	Note         string `json:"note"`
	Persistence  string `json:"persistence"`
}

func (c *Catalog) executeContextCheck(args map[string]any) (contractx.ToolResult, error) {
	if _, err := requireStringArg(args, "content"); err != nil {
		return contractx.ToolResult{Tool: ToolContextCheck, Error: err.Error()}, nil
	}
	domain, _ := stringArg(args, "domain")
	chatType, ok := stringArg(args, "chatType")
	if !ok || chatType == "" {
		chatType = "group"
	}
	groupKey, _ := stringArg(args, "groupKey")

	var group *groupcfgx.GroupConfig
	if groupKey != "" {
		if g, found := c.groups[groupKey]; found {
			group = &g
		}
	}

	layer := privacyx.Classify(chatType, privacyx.BuildPolicy(group), domain)
	canShare := layer == contractx.LayerPublic || layer == contractx.LayerAgentInferred

	return contractx.ToolResult{
		Tool: ToolContextCheck,
		Result: ContextCheckOutput{
			PrivacyLayer:    string(layer),
			CanShareInGroup: canShare,
			Guidance:        guidanceFor(layer),
			Domain:          domain,
		},
	}, nil
}

func guidanceFor(layer contractx.PrivacyLayer) string {
	switch layer {
	case contractx.LayerPrivate:
		return "This information is private. Do not share or attribute to any member. You may use it to inform your decisions without revealing the source."
	case contractx.LayerSubgroup:
		return "This information is scoped to a subgroup. Only share with members of the relevant subgroup."
	case contractx.LayerAgentInferred:
		return "This information is agent-inferred. You may use it in aggregate without attribution."
	default:
		return "This information is public and can be freely shared."
	}
}

// executeContextNote acknowledges a privacy-tagged note and records it in the
// session tracker so the outbound scanner sees it. Durable context storage is
// not wired yet; the response says so explicitly rather than pretending the
// note persists.
func (c *Catalog) executeContextNote(sessionKey string, args map[string]any) (contractx.ToolResult, error) {
	content, err := requireStringArg(args, "content")
	if err != nil {
		return contractx.ToolResult{Tool: ToolContextNote, Error: err.Error()}, nil
	}
	memberID, err := requireStringArg(args, "memberId")
	if err != nil {
		return contractx.ToolResult{Tool: ToolContextNote, Error: err.Error()}, nil
	}
	layer, ok := stringArg(args, "privacyLayer")
	if !ok || layer == "" {
		layer = string(contractx.LayerPrivate)
	}
	domain, _ := stringArg(args, "domain")
	groupKey, _ := stringArg(args, "groupKey")

	item := contractx.ScopedContext{
		ContextID:        uuid.NewString(),
		SourceMemberID:   memberID,
		GroupKey:         groupKey,
		PrivacyLayer:     contractx.PrivacyLayer(layer),
		Content:          content,
		Domain:           domain,
		CreatedAt:        time.Now(),
		SourceSessionKey: sessionKey,
	}
	if c.tracker != nil {
		c.tracker.Record(sessionKey, item)
	}

	note := fmt.Sprintf("Context note stored for member %s (%s", memberID, layer)
	if domain != "" {
		note += ", domain: " + domain
	}
	note += ")"

	return contractx.ToolResult{
		Tool: ToolContextNote,
		Result: ContextNoteOutput{
			Stored:       true,
			ContextID:    item.ContextID,
			MemberID:     memberID,
			PrivacyLayer: layer,
			Domain:       domain,
			Note:         note,
			Persistence:  "session-only; durable context storage is not wired yet",
		},
	}, nil
}
