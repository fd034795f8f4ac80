package translate

import (
	"context"
	"fmt"

	"LifeLine/pkg/llm"
)

const translatePrompt = "You translate emergency messages into English. " +
	"Reply with the English translation only, without quotes or commentary."

// LLMTranslator asks a chat model for the translation.
type LLMTranslator struct {
	llm   llm.LLM
	model string
}

func NewLLMTranslator(l llm.LLM, model string) *LLMTranslator {
	return &LLMTranslator{llm: l, model: model}
}

// SystemPrompt is the instruction the chat handler should be built with.
func SystemPrompt() string { return translatePrompt }

func (t *LLMTranslator) Name() string { return "llm" }

func (t *LLMTranslator) Translate(ctx context.Context, text, sourceLang string) (string, error) {
	return t.llm.Query(ctx, t.model, fmt.Sprintf("Source language: %s\n\n%s", sourceLang, text))
}
