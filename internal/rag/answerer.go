package rag

import (
	"context"
	"fmt"

	"docqa/internal/models"
	"docqa/pkg/logger"
)

// AnswerRequest is one question-answering call.
type AnswerRequest struct {
	Query       string
	History     string // optional prior-conversation text
	TopK        int    // 0 means the configured default
	Model       string // "" means the configured default
	Temperature float32 // 0 means the configured default
}

// Answerer orchestrates the full pipeline:
// expand -> retrieve -> assemble context -> synthesize.
type Answerer struct {
	expander           *Expander
	aggregator         *Aggregator
	synthesizer        *Synthesizer
	defaultTopK        int
	defaultModel       string
	defaultTemperature float32
	log                *logger.Logger
}

// NewAnswerer creates an Answerer.
func NewAnswerer(
	expander *Expander,
	aggregator *Aggregator,
	synthesizer *Synthesizer,
	defaultTopK int,
	defaultModel string,
	defaultTemperature float32,
	log *logger.Logger,
) *Answerer {
	return &Answerer{
		expander:           expander,
		aggregator:         aggregator,
		synthesizer:        synthesizer,
		defaultTopK:        defaultTopK,
		defaultModel:       defaultModel,
		defaultTemperature: defaultTemperature,
		log:                log,
	}
}

// GenerateAnswer answers a question over the indexed documents. It always
// returns a well-formed result: pipeline failures degrade to the fixed
// fallback answers with Success=false.
func (a *Answerer) GenerateAnswer(ctx context.Context, req AnswerRequest) models.AnswerResult {
	topK := req.TopK
	if topK <= 0 {
		topK = a.defaultTopK
	}
	model := req.Model
	if model == "" {
		model = a.defaultModel
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = a.defaultTemperature
	}

	expansions := a.expander.Expand(ctx, req.Query)
	if expansions == nil {
		expansions = []string{}
	}

	queries := append([]string{req.Query}, expansions...)
	chunks := a.aggregator.Retrieve(ctx, queries, topK)

	if len(chunks) == 0 {
		a.log.Info(fmt.Sprintf("No chunks retrieved for query %q, skipping synthesis", req.Query))
		return models.AnswerResult{
			Answer:          NoEvidenceAnswer,
			Chunks:          []models.Chunk{},
			ExpandedQueries: expansions,
			Success:         false,
		}
	}

	contextText := FormatContext(chunks)
	return a.synthesizer.Synthesize(ctx, req.Query, req.History, contextText, chunks, expansions, model, temperature)
}
