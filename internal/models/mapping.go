package models

import "time"

// DefaultMaxConfidence is the highest confidence score observed from the backend matcher.
const DefaultMaxConfidence = 3.5

// ChannelMapping links a provider's channel to a canonical channel.
type ChannelMapping struct {
	ID                  int64     `json:"id" yaml:"id"`
	CanonicalID         string    `json:"canonical_id" yaml:"canonical_id"`
	ProviderID          string    `json:"provider_id" yaml:"provider_id"`
	ProviderChannelID   string    `json:"provider_channel_id" yaml:"provider_channel_id"`
	ProviderChannelName string    `json:"provider_channel_name,omitempty" yaml:"provider_channel_name,omitempty"`
	Confidence          float64   `json:"confidence" yaml:"confidence"`
	IsVerified          Flag      `json:"is_verified" yaml:"is_verified"`
	CreatedAt           time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" yaml:"updated_at"`
}

// Verified reports whether a human confirmed the mapping.
func (m ChannelMapping) Verified() bool { return m.IsVerified.Bool() }

// ConfidencePercent scales Confidence against max into 0..100, clamped at both ends.
//
// A non-positive max falls back to [DefaultMaxConfidence].
func (m ChannelMapping) ConfidencePercent(max float64) float64 {
	if max <= 0 {
		max = DefaultMaxConfidence
	}
	pct := m.Confidence / max * 100
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return pct
}

// MatchesText reports whether text occurs, case-insensitively, in the canonical or provider channel ID.
// Empty text matches everything.
func (m ChannelMapping) MatchesText(text string) bool {
	if text == "" {
		return true
	}
	return containsFold(m.CanonicalID, text) || containsFold(m.ProviderChannelID, text)
}

// MatchesProvider reports whether the mapping comes from providerID; "" and "all" match any provider.
func (m ChannelMapping) MatchesProvider(providerID string) bool {
	return providerID == "" || providerID == AllFilter || m.ProviderID == providerID
}

// Providers returns the distinct provider IDs in first-seen order.
func Providers(mappings []ChannelMapping) []string {
	seen := make(map[string]struct{})
	var providers []string
	for _, m := range mappings {
		if _, ok := seen[m.ProviderID]; ok {
			continue
		}
		seen[m.ProviderID] = struct{}{}
		providers = append(providers, m.ProviderID)
	}
	return providers
}

// AllFilter is the select-box sentinel meaning "no restriction".
const AllFilter = "all"
