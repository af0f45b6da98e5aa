package postprocessors

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// stage appends one chunk tagged with its name, so tests can see the order
// processors ran in and what each received.
type stage struct {
	name string
	err  error
	got  int
}

func (s *stage) Name() string { return s.name }

func (s *stage) Process(_ context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	s.got = len(chunks)
	if s.err != nil {
		return nil, s.err
	}
	return append(chunks, domain.Chunk{Content: s.name}), nil
}

func contents(chunks []domain.Chunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Content
	}
	return strings.Join(parts, ",")
}

func TestPipeline_Process_RunsInOrder(t *testing.T) {
	first, second := &stage{name: "split"}, &stage{name: "filter"}
	p := NewPipeline(first)
	p.Add(second)

	chunks, err := p.Process(context.Background(), &domain.Document{Content: "rent is due monthly"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if got := contents(chunks); got != "split,filter" {
		t.Errorf("chunks = %q, want split,filter", got)
	}
	if first.got != 0 || second.got != 1 {
		t.Errorf("first saw %d chunks, second saw %d; want 0 and 1", first.got, second.got)
	}
	if p.Len() != 2 {
		t.Errorf("Len() = %d, want 2", p.Len())
	}
}

func TestPipeline_Process_Empty(t *testing.T) {
	chunks, err := NewPipeline().Process(context.Background(), &domain.Document{Content: "x"})
	if err != nil || chunks != nil {
		t.Errorf("empty pipeline returned %v, %v", chunks, err)
	}
}

func TestPipeline_Process_Errors(t *testing.T) {
	boom := errors.New("tokenizer crashed")
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name   string
		ctx    context.Context
		doc    *domain.Document
		stages []*stage
		want   error
		ran    bool
	}{
		{"nil document", context.Background(), nil, []*stage{{name: "split"}}, domain.ErrInvalidInput, false},
		{"processor failure", context.Background(), &domain.Document{}, []*stage{{name: "split", err: boom}}, boom, true},
		{"cancelled", cancelled, &domain.Document{}, []*stage{{name: "split"}}, context.Canceled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPipeline()
			for _, s := range tt.stages {
				s.got = -1
				p.Add(s)
			}

			_, err := p.Process(tt.ctx, tt.doc)

			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if ran := tt.stages[0].got >= 0; ran != tt.ran {
				t.Errorf("processor ran = %v, want %v", ran, tt.ran)
			}
		})
	}
}

func TestBuildPipeline_Defaults(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	p, err := BuildPipeline(r, domain.DefaultPipelineConfig())
	if err != nil {
		t.Fatalf("BuildPipeline: %v", err)
	}

	doc := &domain.Document{
		Filename: "u1_rules.txt",
		Content:  strings.Repeat("Bikes go in the shed. ", 60) + "\n\nNo pets.",
	}
	chunks, err := p.Process(context.Background(), doc)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("no chunks")
	}

	seen := make(map[string]bool, len(chunks))
	for i, c := range chunks {
		if seen[c.Content] {
			t.Errorf("duplicate chunk %q survived dedupe", c.Content)
		}
		seen[c.Content] = true
		if c.Metadata[domain.MetaChunk] != i+1 {
			t.Errorf("chunk %d numbered %v", i, c.Metadata[domain.MetaChunk])
		}
		if c.Metadata[domain.MetaFilename] != "u1_rules.txt" {
			t.Errorf("chunk %d lost its filename", i)
		}
	}
}

func TestBuildPipeline_Invalid(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	for name, cfg := range map[string]domain.PipelineConfig{
		"empty":   {},
		"unknown": {Processors: []string{"chunker", "stemmer"}},
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := BuildPipeline(r, cfg); !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}
