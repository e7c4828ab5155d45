package ai

// FallbackPreset returns the default ordered model chain for a provider,
// fastest first. The Hugging Face chain trades quality for latency: a
// small Phi-3 first, then Gemma 2, then Llama 3 as the stable backup.
func FallbackPreset(provider string) ([]string, bool) {
	switch provider {
	case ProviderHuggingFace, "":
		return []string{
			"microsoft/Phi-3-mini-4k-instruct",
			"google/gemma-2-2b-it",
			"meta-llama/Meta-Llama-3-8B-Instruct",
		}, true
	case ProviderOpenRouter:
		return []string{
			"microsoft/phi-3-mini-128k-instruct",
			"google/gemma-2-9b-it",
			"meta-llama/llama-3.1-8b-instruct",
		}, true
	case ProviderOllama:
		return []string{
			"phi3:mini",
			"gemma2:2b",
			"llama3:8b",
		}, true
	default:
		return nil, false
	}
}
