package config

import "testing"

func TestMatchProviderByPrefix(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Providers.GigaChat.APIKey = "g"
	cfg.Providers.OpenAI.APIKey = "o"

	spec, pc := cfg.MatchProvider("gigachat/GigaChat-Pro")
	if spec == nil || spec.Name != "gigachat" {
		t.Fatalf("matched %+v, want gigachat", spec)
	}
	if pc.APIKey != "g" {
		t.Errorf("wrong credentials: %q", pc.APIKey)
	}
}

func TestMatchProviderByKeyword(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Providers.OpenAI.APIKey = "o"

	spec, _ := cfg.MatchProvider("gpt-4o-mini")
	if spec == nil || spec.Name != "openai" {
		t.Fatalf("matched %+v, want openai", spec)
	}
}

func TestMatchProviderFallsBackToConfigured(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Providers.DeepSeek.APIKey = "d"

	// No prefix, no keyword hit with a key: fall back to the only configured one.
	spec, _ := cfg.MatchProvider("some-unknown-model")
	if spec == nil || spec.Name != "deepseek" {
		t.Fatalf("matched %+v, want deepseek fallback", spec)
	}
}

func TestMatchProviderPrefersConfiguredGateway(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Providers.Custom.APIKey = "c"
	cfg.Providers.OpenRouter.APIKey = "r"

	// No prefix or keyword hit: the gateway wins over the plain fallback,
	// which would otherwise pick custom (earlier in registry order).
	spec, _ := cfg.MatchProvider("some-unknown-model")
	if spec == nil || spec.Name != "openrouter" {
		t.Fatalf("matched %+v, want the openrouter gateway", spec)
	}
}

func TestMatchProviderNoneConfigured(t *testing.T) {
	cfg := DefaultConfig()
	if spec, pc := cfg.MatchProvider("gigachat/GigaChat"); spec != nil || pc != nil {
		t.Errorf("expected no match without API keys, got %+v", spec)
	}
}

func TestConfiguredProvidersRegistryOrder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Providers.DeepSeek.APIKey = "d"
	cfg.Providers.OpenRouter.APIKey = "r"

	got := cfg.ConfiguredProviders()
	if len(got) != 2 {
		t.Fatalf("got %d providers, want 2", len(got))
	}
	if got[0].Name != "openrouter" || got[1].Name != "deepseek" {
		t.Errorf("order = [%s, %s], want registry order", got[0].Name, got[1].Name)
	}
}
