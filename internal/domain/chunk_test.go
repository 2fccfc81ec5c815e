package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateChunk(t *testing.T) {
	valid := &Chunk{
		Filename:  "report_part_0",
		Text:      "some content",
		Embedding: []float32{0.1, 0.2},
	}
	assert.NoError(t, ValidateChunk(valid))

	tests := []struct {
		name  string
		chunk *Chunk
	}{
		{"nil chunk", nil},
		{"missing filename", &Chunk{Text: "x", Embedding: []float32{1}}},
		{"missing text", &Chunk{Filename: "a", Embedding: []float32{1}}},
		{"missing embedding", &Chunk{Filename: "a", Text: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, ValidateChunk(tt.chunk))
		})
	}
}

func TestAnswer_Grounded(t *testing.T) {
	grounded := &Answer{Sources: []string{"report_part_0"}}
	assert.True(t, grounded.Grounded())

	noSources := &Answer{Sources: []string{NoSourcesSentinel}}
	assert.False(t, noSources.Grounded())

	cleared := &Answer{Sources: []string{}}
	assert.False(t, cleared.Grounded())
}
