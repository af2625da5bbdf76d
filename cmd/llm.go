package cmd

import (
	"github.com/spf13/viper"

	"github.com/zako-ac/issuetracker/internal/llm"
)

const defaultLLMModel = "claude-haiku-4-5-20251001"

// newLLMClient creates an LLM client from config/env, or returns nil if no API key is configured.
func newLLMClient() *llm.Client {
	apiKey := viper.GetString("anthropic.api_key")
	if apiKey == "" {
		return nil
	}
	return llm.NewClient(apiKey, viper.GetString("anthropic.model"))
}
