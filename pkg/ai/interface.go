package ai

import "context"

// Assistant answers citizen questions during an emergency.
// Implement this interface to add new AI providers.
type Assistant interface {
	Reply(ctx context.Context, message string) (string, error)
}

// ProviderType represents the AI provider type
type ProviderType string

const (
	ProviderGemini ProviderType = "gemini"
	ProviderOllama ProviderType = "ollama"
	ProviderAuto   ProviderType = "auto"
)

// SystemPrompt frames every assistant conversation.
const SystemPrompt = `You are AlertSphere, an emergency assistant for citizens during disasters.
Answer briefly and calmly in plain language. Prioritise life safety: point people
to shelters, safe zones and official instructions. If you do not know something,
say so and advise contacting local emergency services. Never invent shelter
locations or official orders.`
