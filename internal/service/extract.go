package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/patchline/corpusqa/internal/domain"
)

// PlainTextExtractor handles uploads that already are UTF-8 text.
// Blocks are blank-line separated sections; a document without blank
// lines comes back as a single block.
type PlainTextExtractor struct{}

func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{}
}

func (e *PlainTextExtractor) ExtractText(ctx context.Context, data []byte) ([]string, error) {
	if !utf8.Valid(data) {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "file is not valid UTF-8 text")
	}

	text := strings.ReplaceAll(string(data), "\r\n", "\n")

	var blocks []string
	for _, section := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(section) == "" {
			continue
		}
		blocks = append(blocks, section)
	}
	return blocks, nil
}
