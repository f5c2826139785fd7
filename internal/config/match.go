package config

import (
	"strings"

	"github.com/docpilot/docpilot/internal/providers"
)

// MatchProvider picks the provider for a model name.
// Priority: explicit "provider/" prefix, then keyword match against the
// registry, then a configured gateway, then the first configured provider.
func (c *Config) MatchProvider(model string) (*providers.ProviderSpec, *ProviderConfig) {
	m := strings.ToLower(model)

	// "gigachat/GigaChat" style prefix wins outright.
	if i := strings.Index(m, "/"); i > 0 {
		if spec := providers.FindByName(m[:i]); spec != nil {
			if pc := c.ProviderByName(spec.Name); pc != nil && pc.APIKey != "" {
				return spec, pc
			}
		}
	}

	if spec := providers.FindByModel(m); spec != nil {
		if pc := c.ProviderByName(spec.Name); pc != nil && pc.APIKey != "" {
			return spec, pc
		}
	}

	// A configured gateway can route any model name.
	for i := range providers.PROVIDERS {
		spec := &providers.PROVIDERS[i]
		if !spec.IsGateway {
			continue
		}
		if pc := c.ProviderByName(spec.Name); pc != nil && pc.APIKey != "" {
			return spec, pc
		}
	}

	// Fall back to the first provider with a key, in registry order.
	for i := range providers.PROVIDERS {
		spec := &providers.PROVIDERS[i]
		if pc := c.ProviderByName(spec.Name); pc != nil && pc.APIKey != "" {
			return spec, pc
		}
	}
	return nil, nil
}

// ConfiguredProviders returns the registry specs that have an API key set,
// in registry order. Used by `docpilot status`.
func (c *Config) ConfiguredProviders() []*providers.ProviderSpec {
	var out []*providers.ProviderSpec
	for i := range providers.PROVIDERS {
		spec := &providers.PROVIDERS[i]
		if pc := c.ProviderByName(spec.Name); pc != nil && pc.APIKey != "" {
			out = append(out, spec)
		}
	}
	return out
}
