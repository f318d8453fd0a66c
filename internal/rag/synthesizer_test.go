package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/llm"
	"docqa/internal/models"
	"docqa/pkg/logger"
)

func TestSynthesizeSuccess(t *testing.T) {
	client := &fakeCompletion{response: "X is a thing."}
	s := NewSynthesizer(client, logger.New("test"))

	chunks := []models.Chunk{{ChunkID: "c1", Text: "evidence"}}
	got := s.Synthesize(context.Background(), "what is X?", "", "[Chunk 1]\nevidence\n", chunks, []string{"e1"}, "m", 0)

	assert.True(t, got.Success)
	assert.Equal(t, "X is a thing.", got.Answer)
	assert.Equal(t, chunks, got.Chunks)
	assert.Equal(t, []string{"e1"}, got.ExpandedQueries)
}

func TestSynthesizePromptShape(t *testing.T) {
	client := &fakeCompletion{response: "ok"}
	s := NewSynthesizer(client, logger.New("test"))

	s.Synthesize(context.Background(), "the question", "", "the context", nil, nil, "answer-model", 0.2)

	req := client.lastReq
	assert.Equal(t, "answer-model", req.Model)
	assert.Equal(t, float32(0.2), req.Temperature)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, llm.RoleSystem, req.Messages[0].Role)
	assert.NotContains(t, req.Messages[0].Content, "Background")
	assert.Equal(t, llm.RoleUser, req.Messages[1].Role)
	assert.Contains(t, req.Messages[1].Content, "Context:\nthe context")
	assert.Contains(t, req.Messages[1].Content, "Question: the question")
}

func TestSynthesizeAppendsHistoryAsBackground(t *testing.T) {
	client := &fakeCompletion{response: "ok"}
	s := NewSynthesizer(client, logger.New("test"))

	s.Synthesize(context.Background(), "q", "user asked about Y earlier", "ctx", nil, nil, "m", 0)

	system := client.lastReq.Messages[0].Content
	assert.Contains(t, system, "Background from the earlier conversation:")
	assert.Contains(t, system, "user asked about Y earlier")
}

func TestSynthesizeFailureReturnsFixedApology(t *testing.T) {
	client := &fakeCompletion{err: errors.New("connection reset by peer")}
	s := NewSynthesizer(client, logger.New("test"))

	chunks := []models.Chunk{{ChunkID: "c1", Text: "evidence"}}
	got := s.Synthesize(context.Background(), "q", "", "ctx", chunks, []string{"e1"}, "m", 0)

	assert.False(t, got.Success)
	assert.Equal(t, FailureAnswer, got.Answer)
	assert.NotContains(t, got.Answer, "connection reset", "raw model errors must not leak")
	assert.Equal(t, chunks, got.Chunks, "chunks gathered so far are kept")
	assert.Equal(t, []string{"e1"}, got.ExpandedQueries)
}
