// Package rag answers natural-language questions over a vector index by
// retrieving the most similar chunks and prompting a language model with them.
package rag

import (
	"context"
	"fmt"
	"strings"

	"docquery/internal/embeddings"
	"docquery/internal/index"
	"docquery/internal/llm"
)

// Engine ties an index to its embeddings provider and a language model.
type Engine struct {
	Index    *index.Index
	Embedder embeddings.Provider
	LLM      llm.Client
	TopK     int
	MinScore float64
}

// Answer embeds question, retrieves context chunks, and asks the model.
// It also returns the retrieval hits so callers can show sources.
func (e *Engine) Answer(ctx context.Context, question string) (string, []index.Result, error) {
	if strings.TrimSpace(question) == "" {
		return "", nil, fmt.Errorf("question is empty")
	}

	qv, err := e.Embedder.Embed(ctx, question)
	if err != nil {
		return "", nil, fmt.Errorf("cannot embed question: %w", err)
	}
	if len(qv) != e.Index.Manifest.Dim {
		return "", nil, fmt.Errorf("query embedding dim mismatch: got %d want %d (is the index built with %s?)",
			len(qv), e.Index.Manifest.Dim, e.Index.Manifest.ModelID)
	}

	hits, err := e.Index.TopK(qv, e.TopK, e.MinScore)
	if err != nil {
		return "", nil, err
	}
	if len(hits) == 0 {
		return "", nil, fmt.Errorf("no relevant chunks found for question")
	}

	answer, err := e.LLM.Complete(ctx, BuildPrompt(question, hits))
	if err != nil {
		return "", hits, fmt.Errorf("query failed: %w", err)
	}
	return strings.TrimSpace(answer), hits, nil
}

// BuildPrompt assembles the grounding prompt sent to the model.
func BuildPrompt(question string, hits []index.Result) string {
	var b strings.Builder
	b.WriteString("Answer the question using only the context below. ")
	b.WriteString("If the context does not contain the answer, say so.\n\n")
	for i, h := range hits {
		fmt.Fprintf(&b, "Context %d (from %s):\n%s\n\n", i+1, h.Chunk.DocPath, h.Chunk.Text)
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\nAnswer:")
	return b.String()
}
