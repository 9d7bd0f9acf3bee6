// Package groupcfg loads and validates the declarative group/member
// configuration consumed by the member registry, the config sync and the
// resolver. Enum fields (roles, privacy layers, autonomy levels) are enforced
// here so downstream code can assume conforming values.
package groupcfg

import (
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	contractx "github.com/openhearth/hearth/hearth/contract"
)

type IdentityConfig struct {
	Channel     string `mapstructure:"channel" validate:"required"`
	ID          string `mapstructure:"id" validate:"required"`
	Username    string `mapstructure:"username"`
	DisplayName string `mapstructure:"displayName"`
}

type MemberConfig struct {
	Name             string           `mapstructure:"name" validate:"required"`
	Role             string           `mapstructure:"role" validate:"omitempty,oneof=owner admin member guest"`
	Timezone         string           `mapstructure:"timezone"`
	PreferredChannel string           `mapstructure:"preferredChannel"`
	Identities       []IdentityConfig `mapstructure:"identities" validate:"dive"`
	Preferences      map[string]any   `mapstructure:"preferences"`
}

type DomainRuleConfig struct {
	Domain string `mapstructure:"domain" validate:"required"`
	Layer  string `mapstructure:"layer" validate:"required,oneof=public subgroup private agent-inferred"`
}

type PrivacyConfig struct {
	DefaultLayer string             `mapstructure:"defaultLayer" validate:"omitempty,oneof=public subgroup private agent-inferred"`
	DomainRules  []DomainRuleConfig `mapstructure:"domainRules" validate:"dive"`
}

type AutonomyDomainConfig struct {
	Domain string `mapstructure:"domain" validate:"required"`
	Level  string `mapstructure:"level" validate:"required,oneof=passive suggest ask-first autonomous"`
}

// AutonomyConfig is parsed for completeness of the config surface; the
// identity/privacy core does not consume it.
type AutonomyConfig struct {
	Domains []AutonomyDomainConfig `mapstructure:"domains" validate:"dive"`
}

type GroupConfig struct {
	Name     string          `mapstructure:"name" validate:"required"`
	Members  []MemberConfig  `mapstructure:"members" validate:"dive"`
	Privacy  *PrivacyConfig  `mapstructure:"privacy"`
	Autonomy *AutonomyConfig `mapstructure:"autonomy"`
}

// Config is the top-level multi-party configuration, keyed by group key
// (e.g. "whatsapp:group:123456@g.us").
type Config struct {
	Enabled bool                   `mapstructure:"enabled"`
	Groups  map[string]GroupConfig `mapstructure:"groups" validate:"dive"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads the group configuration from path (YAML, JSON or TOML by
// extension) and validates it.
func Load(path string) (*Config, error) {
	// Group keys contain dots ("whatsapp:group:123@g.us"), which viper's
	// default key delimiter would split into nested maps.
	v := viper.NewWithOptions(viper.KeyDelimiter("||"))
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read group config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal group config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces required fields and the closed role/layer/level enums.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", contractx.ErrConfigValidation, err)
	}
	return nil
}

// SortedGroupKeys returns the group keys in lexicographic order. Config maps
// do not preserve declaration order, so scans that need a stable tie-break
// iterate in this order.
func SortedGroupKeys(groups map[string]GroupConfig) []string {
	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// ContractIdentities converts the declared identities to contract values.
func (m MemberConfig) ContractIdentities() []contractx.ChannelIdentity {
	out := make([]contractx.ChannelIdentity, 0, len(m.Identities))
	for _, id := range m.Identities {
		out = append(out, contractx.ChannelIdentity{
			Channel:     id.Channel,
			ID:          id.ID,
			Username:    id.Username,
			DisplayName: id.DisplayName,
		})
	}
	return out
}

// RoleOrDefault returns the declared role, defaulting to "member".
func (m MemberConfig) RoleOrDefault() contractx.MemberRole {
	if m.Role == "" {
		return contractx.RoleMember
	}
	return contractx.MemberRole(m.Role)
}
