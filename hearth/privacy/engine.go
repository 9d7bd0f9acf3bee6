// Package privacy classifies content into privacy layers, filters scoped
// context for a viewer and scans outbound text for attribution leaks.
package privacy

import (
	"strings"

	contractx "github.com/openhearth/hearth/hearth/contract"
	groupcfgx "github.com/openhearth/hearth/hearth/groupcfg"
)

// BuildPolicy materializes a total policy from optional group config:
// defaultLayer falls back to public, domainRules to empty.
func BuildPolicy(group *groupcfgx.GroupConfig) contractx.PrivacyPolicy {
	policy := contractx.PrivacyPolicy{
		DefaultLayer: contractx.LayerPublic,
		DomainRules:  []contractx.DomainRule{},
	}
	if group == nil || group.Privacy == nil {
		return policy
	}
	if group.Privacy.DefaultLayer != "" {
		policy.DefaultLayer = contractx.PrivacyLayer(group.Privacy.DefaultLayer)
	}
	for _, rule := range group.Privacy.DomainRules {
		policy.DomainRules = append(policy.DomainRules, contractx.DomainRule{
			Domain: rule.Domain,
			Layer:  contractx.PrivacyLayer(rule.Layer),
		})
	}
	return policy
}

// Classify computes the privacy layer for a piece of content.
//
// Precedence: a matching domain rule wins over everything, including the
// direct-message default. Without a rule, direct chats are private; group and
// channel chats (and unknown chat types) use the group default.
func Classify(chatType string, policy contractx.PrivacyPolicy, domain string) contractx.PrivacyLayer {
	if domain != "" {
		for _, rule := range policy.DomainRules {
			if strings.EqualFold(rule.Domain, domain) {
				return rule.Layer
			}
		}
	}

	if chatType == "direct" {
		return contractx.LayerPrivate
	}

	if policy.DefaultLayer != "" {
		return policy.DefaultLayer
	}
	return contractx.LayerPublic
}
