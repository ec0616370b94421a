package generate

import (
	"context"
	"log"
	"time"

	"agri-assist-be/internal/constant"
	"agri-assist-be/internal/entity"
	"agri-assist-be/pkg/chat/assembler"
	"agri-assist-be/pkg/chat/prompt"
	"agri-assist-be/pkg/llm"
)

// GeneratedResponse is the adapter's uniform result shape. Failures are
// folded into it, never returned as errors.
type GeneratedResponse struct {
	Text     string
	Metadata entity.GenerationMetadata
}

// Generator wraps the remote LLM behind a bounded, never-failing call.
type Generator struct {
	llmProvider llm.LLMProvider
	timeout     time.Duration
	logger      *log.Logger
}

func NewGenerator(llmProvider llm.LLMProvider, timeout time.Duration, logger *log.Logger) *Generator {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Generator{
		llmProvider: llmProvider,
		timeout:     timeout,
		logger:      logger,
	}
}

// Generate builds the prompt, invokes the provider with a bounded timeout and
// converts any failure into the fixed fallback response with confidence 0.
func (g *Generator) Generate(ctx context.Context, userText string, actx *assembler.AssembledContext) *GeneratedResponse {
	promptText := prompt.NewBuilder(userText, actx).Build()
	started := time.Now()

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	text, err := g.llmProvider.Generate(callCtx, promptText)
	elapsed := time.Since(started)

	if err != nil || text == "" {
		reason := "empty response"
		if err != nil {
			reason = err.Error()
		}
		g.logger.Printf("[GENERATION] provider failure after %s: %s", elapsed, reason)
		return &GeneratedResponse{
			Text: constant.FallbackResponse,
			Metadata: entity.GenerationMetadata{
				ProcessingMs:    elapsed.Milliseconds(),
				Model:           g.llmProvider.ModelName(),
				InputTokensEst:  estimateTokens(promptText),
				OutputTokensEst: 0,
				Confidence:      0,
				FailureReason:   reason,
			},
		}
	}

	g.logger.Printf("[GENERATION] ok in %s (%d prompt chars)", elapsed, len(promptText))
	return &GeneratedResponse{
		Text: text,
		Metadata: entity.GenerationMetadata{
			ProcessingMs:    elapsed.Milliseconds(),
			Model:           g.llmProvider.ModelName(),
			InputTokensEst:  estimateTokens(promptText),
			OutputTokensEst: estimateTokens(text),
			Confidence:      0.9,
		},
	}
}

// estimateTokens is the usual rough chars/4 heuristic.
func estimateTokens(text string) int {
	return (len(text) + 3) / 4
}
