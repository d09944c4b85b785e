package chunker

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

const tokenEncoding = "cl100k_base"

// TokenSplitter windows text by BPE token count instead of runes. Windows
// are decoded back to text, so chunk boundaries always fall on token edges.
type TokenSplitter struct {
	size    int
	overlap int
	enc     *tiktoken.Tiktoken
}

func NewTokenSplitter(size, overlap int) (*TokenSplitter, error) {
	if err := validateWindow(size, overlap); err != nil {
		return nil, err
	}
	enc, err := tiktoken.GetEncoding(tokenEncoding)
	if err != nil {
		return nil, fmt.Errorf("load %s encoding: %w", tokenEncoding, err)
	}
	return &TokenSplitter{size: size, overlap: overlap, enc: enc}, nil
}

func (s *TokenSplitter) Split(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	tokens := s.enc.Encode(text, nil, nil)
	step := s.size - s.overlap

	var chunks []string
	for start := 0; start < len(tokens); start += step {
		end := start + s.size
		if end > len(tokens) {
			end = len(tokens)
		}

		chunks = append(chunks, s.enc.Decode(tokens[start:end]))

		if end == len(tokens) {
			break
		}
	}
	return chunks, nil
}
