// Package chunker splits raw document text into overlapping fixed-size
// windows with stable, contiguous indices.
package chunker

import (
	"fmt"
	"strings"

	"docvector/types"
)

// Splitter cuts document text into overlapping windows. Implementations are
// pure: the same input always yields the same windows in the same order.
type Splitter interface {
	Split(text string) ([]string, error)
}

// FromConfig selects the deployment's split unit. The unit must stay fixed
// for the lifetime of a collection.
func FromConfig(cfg types.Config) (Splitter, error) {
	switch cfg.ChunkUnit {
	case "", "chars":
		return NewRuneSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	case "tokens":
		return NewTokenSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	default:
		return nil, fmt.Errorf("%w: unknown chunk unit %q", types.ErrInvalidConfiguration, cfg.ChunkUnit)
	}
}

// RuneSplitter windows text by rune count, advancing size-overlap runes per
// step.
type RuneSplitter struct {
	size    int
	overlap int
}

func NewRuneSplitter(size, overlap int) (*RuneSplitter, error) {
	if err := validateWindow(size, overlap); err != nil {
		return nil, err
	}
	return &RuneSplitter{size: size, overlap: overlap}, nil
}

func (s *RuneSplitter) Split(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	runes := []rune(text)
	step := s.size - s.overlap

	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + s.size
		if end > len(runes) {
			end = len(runes)
		}

		chunks = append(chunks, string(runes[start:end]))

		if end == len(runes) {
			break
		}
	}
	return chunks, nil
}

func validateWindow(size, overlap int) error {
	if size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", types.ErrInvalidConfiguration, size)
	}
	if overlap < 0 || overlap >= size {
		return fmt.Errorf("%w: overlap %d must be in [0, %d)", types.ErrInvalidConfiguration, overlap, size)
	}
	return nil
}
