// Package tool exposes registry and privacy operations to the agent runtime
// as callable tools.
package tool

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/openhearth/hearth/hearth/contract"
	groupcfgx "github.com/openhearth/hearth/hearth/groupcfg"
	memberx "github.com/openhearth/hearth/hearth/member"
	sessionx "github.com/openhearth/hearth/hearth/session"
)

const (
	ToolMembers      = "hearth_members"
	ToolMemberInfo   = "hearth_member_info"
	ToolContextCheck = "hearth_context_check"
	ToolContextNote  = "hearth_context_note"
)

// Executor runs one named tool with loosely typed arguments.
type Executor func(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error)

// Catalog wires the member registry, group config and session tracker into
// the tool surface handed to the agent runtime.
type Catalog struct {
	registry *memberx.Registry
	groups   map[string]groupcfgx.GroupConfig
	tracker  sessionx.Tracker
}

func NewCatalog(registry *memberx.Registry, groups map[string]groupcfgx.GroupConfig, tracker sessionx.Tracker) *Catalog {
	return &Catalog{registry: registry, groups: groups, tracker: tracker}
}

// BuildForSession returns the tool declarations plus an executor bound to the
// session composing the current reply.
func (c *Catalog) BuildForSession(sessionKey string) ([]*schema.ToolInfo, Executor) {
	return Infos(), c.ExecutorFor(sessionKey)
}

// Infos declares the four tools of the identity/privacy surface.
func Infos() []*schema.ToolInfo {
	return []*schema.ToolInfo{
		{
			Name: ToolMembers,
			Desc: "List all members in the group. Returns names, roles, timezones, and preferred channels.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
		},
		{
			Name: ToolMemberInfo,
			Desc: "Get detailed information about a specific member by name or member ID. Includes their identities, timezone, and preferences.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {Type: schema.String, Desc: "Member name or member ID to look up", Required: true},
			}),
		},
		{
			Name: ToolContextCheck,
			Desc: "Check the privacy boundary for a piece of information before sharing it. Returns whether the information can be shared in the current context and any restrictions.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"content":  {Type: schema.String, Desc: "The content to check privacy for", Required: true},
				"domain":   {Type: schema.String, Desc: `Optional domain tag (e.g. "health", "finances", "personal") for domain-specific rules`},
				"chatType": {Type: schema.String, Desc: `Current chat type: "direct", "group", or "channel"`},
				"groupKey": {Type: schema.String, Desc: "Group key to check privacy against"},
			}),
		},
		{
			Name: ToolContextNote,
			Desc: "Store a scoped context note about a member. Notes are privacy-tagged and can only be surfaced according to their privacy layer. Use this to remember member preferences, constraints, or information shared in DMs.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"content":      {Type: schema.String, Desc: "The note content to store", Required: true},
				"memberId":     {Type: schema.String, Desc: "The member this note is about", Required: true},
				"privacyLayer": {Type: schema.String, Desc: `Privacy layer: "public", "private", "subgroup", or "agent-inferred". Defaults to "private".`},
				"domain":       {Type: schema.String, Desc: `Optional domain tag (e.g. "health", "dietary", "schedule", "finances")`},
				"groupKey":     {Type: schema.String, Desc: "Group key this note belongs to"},
			}),
		},
	}
}

// ExecutorFor builds the executor for one session. Unknown tools report an
// unavailable error in the result rather than failing the call.
func (c *Catalog) ExecutorFor(sessionKey string) Executor {
	return func(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error) {
		switch tool {
		case ToolMembers:
			return c.executeMembers(ctx)
		case ToolMemberInfo:
			return c.executeMemberInfo(ctx, args)
		case ToolContextCheck:
			return c.executeContextCheck(args)
		case ToolContextNote:
			return c.executeContextNote(sessionKey, args)
		default:
			return contractx.ToolResult{
				Tool:  tool,
				Error: fmt.Sprintf("tool=%s is unavailable", tool),
			}, nil
		}
	}
}

// stringArg extracts an optional string argument, tolerating absence.
func stringArg(args map[string]any, key string) (string, bool) {
	raw, ok := args[key]
	if !ok {
		return "", false
	}
	value, ok := raw.(string)
	return value, ok
}

// requireStringArg extracts a required string argument or describes why it
// could not.
func requireStringArg(args map[string]any, key string) (string, error) {
	raw, ok := args[key]
	if !ok {
		return "", fmt.Errorf("%s is required", key)
	}
	value, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", key)
	}
	if value == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return value, nil
}
