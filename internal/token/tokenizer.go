// Package token wraps the tiktoken cl100k_base encoding. One Tokenizer
// instance is shared by the chunker and the embedding client so chunk
// sizing and service token limits can never disagree.
package token

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// EncodingName is the token vocabulary used across the whole pipeline.
const EncodingName = "cl100k_base"

// Tokenizer counts and encodes/decodes text into model token units.
type Tokenizer struct {
	enc *tiktoken.Tiktoken
}

// New creates a Tokenizer for the cl100k_base encoding.
func New() (*Tokenizer, error) {
	enc, err := tiktoken.GetEncoding(EncodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s encoding: %w", EncodingName, err)
	}
	return &Tokenizer{enc: enc}, nil
}

// Count returns the number of tokens in text.
func (t *Tokenizer) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(t.enc.Encode(text, nil, nil))
}

// Encode returns the token ids for text.
func (t *Tokenizer) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

// Decode converts token ids back to text. Round-tripping a slice taken
// from the middle of a document can shift whitespace at the boundaries;
// it does not materially change the token count.
func (t *Tokenizer) Decode(ids []int) string {
	return t.enc.Decode(ids)
}

// Truncate returns text cut to at most limit tokens, and whether any
// cutting happened.
func (t *Tokenizer) Truncate(text string, limit int) (string, bool) {
	ids := t.enc.Encode(text, nil, nil)
	if len(ids) <= limit {
		return text, false
	}
	return t.enc.Decode(ids[:limit]), true
}
