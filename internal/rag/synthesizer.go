package rag

import (
	"context"
	"fmt"

	"docqa/internal/llm"
	"docqa/internal/models"
	"docqa/pkg/logger"
)

const answerSystemPrompt = "You are a helpful assistant that answers questions based on the provided context. " +
	"If the answer cannot be found in the context, say that you don't know based on the available information. " +
	"Don't make up information that isn't supported by the context."

// Fixed user-safe answers for the failure paths. Raw model errors are never
// surfaced in an AnswerResult.
const (
	NoEvidenceAnswer = "No relevant information found in any of the documents."
	FailureAnswer    = "Sorry, I was unable to generate an answer. Please try again."
)

// Synthesizer turns assembled context and a question into the final answer
// via a single completion call.
type Synthesizer struct {
	llm llm.CompletionClient
	log *logger.Logger
}

// NewSynthesizer creates a Synthesizer.
func NewSynthesizer(client llm.CompletionClient, log *logger.Logger) *Synthesizer {
	return &Synthesizer{llm: client, log: log}
}

// Synthesize builds the answer prompt and calls the model. history, when
// non-empty, is appended to the system instruction framed as background.
// On any model failure the result carries the fixed apology with
// Success=false and the chunks and expansions gathered so far.
func (s *Synthesizer) Synthesize(
	ctx context.Context,
	query, history, contextText string,
	chunks []models.Chunk,
	expansions []string,
	model string,
	temperature float32,
) models.AnswerResult {
	system := answerSystemPrompt
	if history != "" {
		system += "\n\nBackground from the earlier conversation:\n" + history
	}

	req := llm.CompletionRequest{
		Model: model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: system},
			{Role: llm.RoleUser, Content: fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextText, query)},
		},
		Temperature: temperature,
	}

	answer, err := s.llm.Complete(ctx, req)
	if err != nil {
		s.log.Error(fmt.Sprintf("Answer generation failed: %v", err))
		return models.AnswerResult{
			Answer:          FailureAnswer,
			Chunks:          chunks,
			ExpandedQueries: expansions,
			Success:         false,
		}
	}

	return models.AnswerResult{
		Answer:          answer,
		Chunks:          chunks,
		ExpandedQueries: expansions,
		Success:         true,
	}
}
