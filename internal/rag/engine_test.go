package rag

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"docquery/internal/index"
)

type fixedEmbedder struct {
	vec []float32
}

func (f fixedEmbedder) ModelID() string { return "fake:test" }
func (f fixedEmbedder) Dim() int        { return len(f.vec) }
func (f fixedEmbedder) Embed(context.Context, string) ([]float32, error) {
	return f.vec, nil
}

type scriptedLLM struct {
	gotPrompt string
	answer    string
	err       error
}

func (s *scriptedLLM) ModelID() string { return "fake:llm" }
func (s *scriptedLLM) Complete(_ context.Context, prompt string) (string, error) {
	s.gotPrompt = prompt
	return s.answer, s.err
}

func testIdx() *index.Index {
	return &index.Index{
		Manifest: index.Manifest{IndexVersion: 1, Dim: 2},
		Chunks: []index.ChunkEntry{
			{ID: "a#0", DocID: "a", DocPath: "a.txt", Text: "apples are red"},
			{ID: "b#0", DocID: "b", DocPath: "b.txt", Text: "the sky is blue"},
		},
		Vectors: []float32{1, 0, 0, 1},
	}
}

func TestAnswer_RetrievesAndPrompts(t *testing.T) {
	model := &scriptedLLM{answer: " apples are red \n"}
	e := &Engine{
		Index:    testIdx(),
		Embedder: fixedEmbedder{vec: []float32{1, 0}},
		LLM:      model,
		TopK:     1,
	}

	answer, hits, err := e.Answer(context.Background(), "what color are apples?")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if answer != "apples are red" {
		t.Fatalf("unexpected answer: %q", answer)
	}
	if len(hits) != 1 || hits[0].Chunk.ID != "a#0" {
		t.Fatalf("unexpected hits: %+v", hits)
	}
	if !strings.Contains(model.gotPrompt, "apples are red") {
		t.Fatalf("retrieved chunk missing from prompt:\n%s", model.gotPrompt)
	}
	if !strings.Contains(model.gotPrompt, "what color are apples?") {
		t.Fatalf("question missing from prompt:\n%s", model.gotPrompt)
	}
	if strings.Contains(model.gotPrompt, "the sky is blue") {
		t.Fatalf("unretrieved chunk leaked into prompt:\n%s", model.gotPrompt)
	}
}

func TestAnswer_DimMismatch(t *testing.T) {
	e := &Engine{
		Index:    testIdx(),
		Embedder: fixedEmbedder{vec: []float32{1, 0, 0}},
		LLM:      &scriptedLLM{},
		TopK:     1,
	}
	if _, _, err := e.Answer(context.Background(), "q"); err == nil {
		t.Fatalf("expected dim mismatch error")
	}
}

func TestAnswer_LLMFailureStillReturnsHits(t *testing.T) {
	e := &Engine{
		Index:    testIdx(),
		Embedder: fixedEmbedder{vec: []float32{1, 0}},
		LLM:      &scriptedLLM{err: fmt.Errorf("model offline")},
		TopK:     1,
	}
	_, hits, err := e.Answer(context.Background(), "q")
	if err == nil {
		t.Fatalf("expected error when model fails")
	}
	if len(hits) != 1 {
		t.Fatalf("expected hits despite model failure, got %d", len(hits))
	}
}

func TestAnswer_EmptyQuestion(t *testing.T) {
	e := &Engine{Index: testIdx(), Embedder: fixedEmbedder{vec: []float32{1, 0}}, LLM: &scriptedLLM{}}
	if _, _, err := e.Answer(context.Background(), "   "); err == nil {
		t.Fatalf("expected error for empty question")
	}
}

func TestBuildPrompt_NumbersContexts(t *testing.T) {
	hits := []index.Result{
		{Chunk: index.ChunkEntry{DocPath: "a.txt", Text: "one"}},
		{Chunk: index.ChunkEntry{DocPath: "b.txt", Text: "two"}},
	}
	p := BuildPrompt("q?", hits)
	if !strings.Contains(p, "Context 1 (from a.txt):") || !strings.Contains(p, "Context 2 (from b.txt):") {
		t.Fatalf("contexts not numbered:\n%s", p)
	}
}
