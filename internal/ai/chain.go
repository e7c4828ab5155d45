package ai

import "fmt"

// BuildBackends resolves model specs into runtimes. With no specs the
// provider's FallbackPreset is used. cfgFor supplies per-provider settings
// such as the API key.
func BuildBackends(provider string, specs []string, cfgFor func(provider string) RuntimeConfig) ([]Backend, error) {
	if provider == "" {
		provider = ProviderHuggingFace
	}
	if len(specs) == 0 {
		preset, ok := FallbackPreset(provider)
		if !ok {
			return nil, fmt.Errorf("no default models for provider %q; set llm_models", provider)
		}
		specs = preset
	}
	runtimes := map[string]Runtime{}
	out := make([]Backend, 0, len(specs))
	for _, spec := range specs {
		p, model, err := ParseBackendSpec(spec, provider)
		if err != nil {
			return nil, err
		}
		rt, ok := runtimes[p]
		if !ok {
			rt, ok = GetRuntime(p, cfgFor(p))
			if !ok {
				return nil, fmt.Errorf("unknown provider %q", p)
			}
			runtimes[p] = rt
		}
		out = append(out, Backend{Name: p, Runtime: rt, Model: model})
	}
	return out, nil
}
