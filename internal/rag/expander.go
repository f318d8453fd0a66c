package rag

import (
	"context"
	"fmt"
	"strings"

	"docqa/internal/llm"
	"docqa/pkg/logger"
)

const expansionSystemPrompt = "You are a query expansion assistant. Your task is to generate alternative " +
	"versions of the user's query that might retrieve additional relevant information. " +
	"Generate semantically different but related queries that explore different aspects " +
	"or phrasings of the same information need. Return ONLY a numbered list of queries, " +
	"no explanations or other text."

// expansionTemperature keeps the paraphrases diverse.
const expansionTemperature = 0.7

// Expander generates alternative phrasings of a query to widen retrieval
// recall.
type Expander struct {
	llm   llm.CompletionClient
	model string
	max   int
	log   *logger.Logger
}

// NewExpander creates an Expander that produces at most max expansions per
// query using the given model.
func NewExpander(client llm.CompletionClient, model string, max int, log *logger.Logger) *Expander {
	return &Expander{llm: client, model: model, max: max, log: log}
}

// Expand returns up to max alternative queries. Retrieval must degrade
// gracefully to the original query alone, so every failure is swallowed and
// yields an empty list.
func (e *Expander) Expand(ctx context.Context, query string) []string {
	req := llm.CompletionRequest{
		Model: e.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: expansionSystemPrompt},
			{Role: llm.RoleUser, Content: fmt.Sprintf("Original query: '%s'\n\nGenerate %d alternative queries.", query, e.max)},
		},
		Temperature: expansionTemperature,
	}

	text, err := e.llm.Complete(ctx, req)
	if err != nil {
		e.log.Warn(fmt.Sprintf("Query expansion failed: %v", err))
		return nil
	}

	expansions := parseExpansions(text, e.max)
	e.log.Debug(fmt.Sprintf("Expanded query into %d alternatives", len(expansions)))
	return expansions
}

// parseExpansions extracts queries from a numbered-list response. Each
// non-empty line is kept after stripping a leading "<digits>." prefix and
// one layer of surrounding matching quotes.
func parseExpansions(text string, max int) []string {
	var expansions []string
	for _, line := range strings.Split(text, "\n") {
		clean := strings.TrimSpace(line)
		if clean == "" {
			continue
		}

		clean = stripListNumber(clean)
		clean = stripQuotes(clean)
		if clean == "" {
			continue
		}

		expansions = append(expansions, clean)
		if len(expansions) == max {
			break
		}
	}
	return expansions
}

func stripListNumber(line string) string {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i < len(line) && line[i] == '.' {
		return strings.TrimSpace(line[i+1:])
	}
	return line
}

func stripQuotes(line string) string {
	if len(line) >= 2 {
		first, last := line[0], line[len(line)-1]
		if first == last && (first == '"' || first == '\'') {
			return line[1 : len(line)-1]
		}
	}
	return line
}
