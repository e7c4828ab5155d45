package ai

import "context"

// Runtime is a minimal interface implemented by AI backends: the hosted
// OpenAI-compatible routers and a local Ollama runtime.
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// Provider identifiers used across the CLI for selection.
const (
	ProviderHuggingFace = "huggingface"
	ProviderOpenRouter  = "openrouter"
	ProviderOllama      = "ollama"
)
