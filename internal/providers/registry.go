package providers

import "strings"

// ProviderSpec is the metadata record for one LLM provider.
type ProviderSpec struct {
	Name        string   // config field name, e.g. "gigachat"
	Keywords    []string // model-name keywords for matching (lowercase)
	DisplayName string   // shown in `docpilot status`

	// Gateway behaviour
	IsGateway        bool   // routes any model (OpenRouter)
	DefaultAPIBase   string // fallback base URL when none is configured
	StripModelPrefix bool   // strip "provider/" before using the model name
}

// Label returns the display name, defaulting to Title-cased Name.
func (s ProviderSpec) Label() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return strings.ToTitle(s.Name[:1]) + s.Name[1:]
}

// PROVIDERS is the registry. Order = match priority.
var PROVIDERS = []ProviderSpec{
	{
		Name:        "custom",
		DisplayName: "Custom",
	},
	{
		Name:             "openrouter",
		Keywords:         []string{"openrouter"},
		DisplayName:      "OpenRouter",
		IsGateway:        true,
		DefaultAPIBase:   "https://openrouter.ai/api/v1",
		StripModelPrefix: false,
	},
	{
		Name:             "gigachat",
		Keywords:         []string{"gigachat"},
		DisplayName:      "GigaChat",
		DefaultAPIBase:   "https://gigachat.devices.sberbank.ru/api/v1",
		StripModelPrefix: true,
	},
	{
		Name:             "openai",
		Keywords:         []string{"gpt", "o1", "o3"},
		DisplayName:      "OpenAI",
		DefaultAPIBase:   "https://api.openai.com/v1",
		StripModelPrefix: true,
	},
	{
		Name:             "deepseek",
		Keywords:         []string{"deepseek"},
		DisplayName:      "DeepSeek",
		DefaultAPIBase:   "https://api.deepseek.com/v1",
		StripModelPrefix: true,
	},
}

// FindByName returns the spec with the given name, or nil.
func FindByName(name string) *ProviderSpec {
	for i := range PROVIDERS {
		if PROVIDERS[i].Name == name {
			return &PROVIDERS[i]
		}
	}
	return nil
}

// FindByModel returns the first spec whose keywords match the model name.
func FindByModel(model string) *ProviderSpec {
	m := strings.ToLower(model)
	for i := range PROVIDERS {
		for _, kw := range PROVIDERS[i].Keywords {
			if strings.Contains(m, kw) {
				return &PROVIDERS[i]
			}
		}
	}
	return nil
}
