package contract

import "time"

// MemberRole is the role of a member within a group.
type MemberRole string

const (
	RoleOwner  MemberRole = "owner"
	RoleAdmin  MemberRole = "admin"
	RoleMember MemberRole = "member"
	RoleGuest  MemberRole = "guest"
)

// ChannelIdentity is a channel-scoped handle bound to exactly one member at a
// time. A (channel, id) pair is compared case-insensitively and maps to at
// most one member; reassigning it supersedes the prior binding.
type ChannelIdentity struct {
	// Channel provider id (e.g. "whatsapp", "discord", "telegram").
	Channel string `json:"channel"`
	// Channel-specific user id (e.g. phone number, discord user id).
	ID string `json:"id"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// Member is a durable identity representing one human participant across
// channels. MemberID is stable and immutable once assigned.
type Member struct {
	MemberID         string            `json:"member_id"`
	Name             string            `json:"name"`
	Role             MemberRole        `json:"role"`
	Timezone         string            `json:"timezone,omitempty"`
	PreferredChannel string            `json:"preferred_channel,omitempty"`
	Identities       []ChannelIdentity `json:"identities"`
	// Preferences is a free-form bag constrained to JSON-representable values.
	Preferences map[string]any `json:"preferences,omitempty"`
}

// Subgroup is an ad-hoc named subset of a group's members, independent of
// channel structure. Created and dissolved explicitly, never implied by config.
type Subgroup struct {
	SubgroupID string    `json:"subgroup_id"`
	GroupKey   string    `json:"group_key"`
	Name       string    `json:"name"`
	MemberIDs  []string  `json:"member_ids"`
	CreatedAt  time.Time `json:"created_at"`
}

// PrivacyLayer is the visibility scope of a piece of context.
//   - public: visible to all group members.
//   - subgroup: visible only within a named subgroup.
//   - private: visible only to the originating member and the agent.
//   - agent-inferred: synthesized by the agent from private material; usable
//     in aggregate but never attributable to a source.
type PrivacyLayer string

const (
	LayerPublic        PrivacyLayer = "public"
	LayerSubgroup      PrivacyLayer = "subgroup"
	LayerPrivate       PrivacyLayer = "private"
	LayerAgentInferred PrivacyLayer = "agent-inferred"
)

// DomainRule overrides the privacy layer for a free-text topic label.
type DomainRule struct {
	Domain string       `json:"domain"`
	Layer  PrivacyLayer `json:"layer"`
}

// PrivacyPolicy is a total, non-optional policy materialized from group config.
type PrivacyPolicy struct {
	DefaultLayer PrivacyLayer `json:"default_layer"`
	DomainRules  []DomainRule `json:"domain_rules"`
}

// ScopedContext is an immutable, privacy-tagged unit of recorded information
// attributable to a source member. Records are append-only; they are never
// mutated, only superseded by new records.
type ScopedContext struct {
	ContextID        string       `json:"context_id"`
	SourceMemberID   string       `json:"source_member_id"`
	GroupKey         string       `json:"group_key"`
	SubgroupID       string       `json:"subgroup_id,omitempty"`
	PrivacyLayer     PrivacyLayer `json:"privacy_layer"`
	Content          string       `json:"content"`
	Domain           string       `json:"domain,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	SourceSessionKey string       `json:"source_session_key,omitempty"`
}

// InboundContext is the normalized sender envelope a channel transport hands
// to the resolver. Field presence varies by channel: telephony-style channels
// carry SenderE164, username-based channels carry SenderUsername.
type InboundContext struct {
	Provider           string `json:"provider,omitempty"`
	OriginatingChannel string `json:"originating_channel,omitempty"`
	SenderID           string `json:"sender_id,omitempty"`
	From               string `json:"from,omitempty"`
	SenderUsername     string `json:"sender_username,omitempty"`
	SenderE164         string `json:"sender_e164,omitempty"`
	ChatType           string `json:"chat_type,omitempty"`
	SessionKey         string `json:"session_key,omitempty"`
}

// ToolResult is the structured outcome of a tool invocation handed back to
// the agent runtime.
type ToolResult struct {
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}
