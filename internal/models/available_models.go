package models

// ModelOption is a selectable model for a provider
type ModelOption struct {
	Name        string `json:"name"`
	Display     string `json:"display"`
	Description string `json:"description"`
}

// AvailableModels lists the models offered per provider in project settings
var AvailableModels = map[AIProvider][]ModelOption{
	AIProviderOllama: {
		{Name: "llama3.1:8b", Display: "Llama 3.1 8B (Recommended)", Description: "Fast and efficient, 8GB RAM"},
		{Name: "llama3.1:70b", Display: "Llama 3.1 70B", Description: "Best quality, needs GPU"},
		{Name: "llama3.2:3b", Display: "Llama 3.2 3B", Description: "Lightweight, 4GB RAM"},
		{Name: "mistral:7b", Display: "Mistral 7B", Description: "Fast inference"},
		{Name: "mixtral:8x7b", Display: "Mixtral 8x7B", Description: "High quality"},
		{Name: "phi3:medium", Display: "Phi-3 Medium", Description: "Microsoft's efficient model"},
	},
	AIProviderOpenAI: {
		{Name: "gpt-4o", Display: "GPT-4o (Recommended)", Description: "Best quality, multimodal"},
		{Name: "gpt-4o-mini", Display: "GPT-4o Mini", Description: "Fast and affordable"},
		{Name: "gpt-4-turbo", Display: "GPT-4 Turbo", Description: "Previous generation"},
		{Name: "gpt-3.5-turbo", Display: "GPT-3.5 Turbo", Description: "Fast and cheap"},
	},
	AIProviderAnthropic: {
		{Name: "claude-opus-4-20250514", Display: "Claude Opus 4 (Recommended)", Description: "Highest intelligence"},
		{Name: "claude-sonnet-4-20250514", Display: "Claude Sonnet 4", Description: "Best balance"},
		{Name: "claude-3-5-haiku-20241022", Display: "Claude 3.5 Haiku", Description: "Fast and affordable"},
	},
	AIProviderGemini: {
		{Name: "gemini-2.5-flash", Display: "Gemini 2.5 Flash (Recommended)", Description: "Fast and capable"},
		{Name: "gemini-2.5-pro", Display: "Gemini 2.5 Pro", Description: "Highest quality"},
	},
}
