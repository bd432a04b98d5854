// Package business holds the per-tenant snapshot that drives a conversation
// turn: the services a business offers, its free-form configuration, and the
// booking integration it uses.
package business

import "strings"

// ServiceInfo describes one offered service.
type ServiceInfo struct {
	Price    string `json:"price"`
	Duration string `json:"duration"`
}

// Context is a read-only snapshot of one business's data. It is supplied per
// turn and never mutated by the turn engine.
type Context struct {
	Services map[string]ServiceInfo `json:"services"`
	Config   map[string]string      `json:"config"`
}

// ConfigValue returns the trimmed config value for key, or fallback when the
// key is missing or blank.
func (c Context) ConfigValue(key, fallback string) string {
	if v, ok := c.Config[key]; ok {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return fallback
}

// ProviderDescriptor identifies which booking vendor handles this business and
// the credential to use for it.
type ProviderDescriptor struct {
	ProviderID string `json:"provider_id"`
	Credential string `json:"credential"`
}

// ProviderDescriptor derives the booking descriptor from the config keys the
// spreadsheet carries.
func (c Context) ProviderDescriptor() ProviderDescriptor {
	return ProviderDescriptor{
		ProviderID: c.ConfigValue("booking_provider", ""),
		Credential: c.ConfigValue("booking_api_key", ""),
	}
}
