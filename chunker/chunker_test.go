package chunker

import (
	"strings"
	"testing"

	"docvector/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuneSplitter_Offsets(t *testing.T) {
	s, err := NewRuneSplitter(1000, 200)
	require.NoError(t, err)

	text := strings.Repeat("a", 800) + strings.Repeat("b", 800) + strings.Repeat("c", 700)
	require.Len(t, text, 2300)

	chunks, err := s.Split(text)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	runes := []rune(text)
	assert.Equal(t, string(runes[0:1000]), chunks[0])
	assert.Equal(t, string(runes[800:1800]), chunks[1])
	assert.Equal(t, string(runes[1600:2300]), chunks[2])
	assert.Len(t, chunks[2], 700)
}

func TestRuneSplitter_Coverage(t *testing.T) {
	const size, overlap = 50, 10
	s, err := NewRuneSplitter(size, overlap)
	require.NoError(t, err)

	texts := []string{
		"short",
		strings.Repeat("x", size),
		strings.Repeat("The quick brown fox jumps over the lazy dog. ", 40),
		strings.Repeat("日本語のテキストでも正しく分割できること。", 30),
	}
	for _, text := range texts {
		chunks, err := s.Split(text)
		require.NoError(t, err)
		require.NotEmpty(t, chunks)

		// Dropping each chunk's leading overlap reconstructs the input.
		var sb strings.Builder
		for i, ch := range chunks {
			runes := []rune(ch)
			if i == 0 {
				sb.WriteString(ch)
				continue
			}
			sb.WriteString(string(runes[overlap:]))
		}
		assert.Equal(t, text, sb.String())
	}
}

func TestRuneSplitter_CountFormula(t *testing.T) {
	const size, overlap = 100, 30
	s, err := NewRuneSplitter(size, overlap)
	require.NoError(t, err)

	step := size - overlap
	for _, length := range []int{100, 101, 170, 171, 500, 1234} {
		chunks, err := s.Split(strings.Repeat("z", length))
		require.NoError(t, err)

		want := (length - overlap + step - 1) / step // ceil((L-O)/(S-O))
		assert.Len(t, chunks, want, "length %d", length)
	}
}

func TestRuneSplitter_SingleChunkWhenTextFits(t *testing.T) {
	s, err := NewRuneSplitter(1000, 200)
	require.NoError(t, err)

	chunks, err := s.Split("just a sentence")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "just a sentence", chunks[0])
}

func TestRuneSplitter_EmptyInput(t *testing.T) {
	s, err := NewRuneSplitter(1000, 200)
	require.NoError(t, err)

	for _, text := range []string{"", "   ", "\n\t  \n"} {
		chunks, err := s.Split(text)
		require.NoError(t, err)
		assert.Empty(t, chunks)
	}
}

func TestRuneSplitter_Deterministic(t *testing.T) {
	s, err := NewRuneSplitter(40, 10)
	require.NoError(t, err)

	text := strings.Repeat("determinism matters for restartable ingestion. ", 20)
	first, err := s.Split(text)
	require.NoError(t, err)
	second, err := s.Split(text)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNewRuneSplitter_InvalidConfiguration(t *testing.T) {
	cases := []struct {
		name          string
		size, overlap int
	}{
		{"overlap equals size", 100, 100},
		{"overlap exceeds size", 100, 150},
		{"negative overlap", 100, -1},
		{"zero size", 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewRuneSplitter(tc.size, tc.overlap)
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrInvalidConfiguration)
		})
	}
}

func TestFromConfig(t *testing.T) {
	cfg := types.Config{ChunkSize: 100, ChunkOverlap: 20, ChunkUnit: "chars"}
	s, err := FromConfig(cfg)
	require.NoError(t, err)
	assert.IsType(t, &RuneSplitter{}, s)

	cfg.ChunkUnit = "bogus"
	_, err = FromConfig(cfg)
	assert.ErrorIs(t, err, types.ErrInvalidConfiguration)
}

func TestTokenSplitter_WindowsAndOrder(t *testing.T) {
	s, err := NewTokenSplitter(20, 5)
	require.NoError(t, err)

	text := strings.Repeat("Retrieval systems rank passages by similarity. ", 15)
	chunks, err := s.Split(text)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	// Same call, same chunks.
	again, err := s.Split(text)
	require.NoError(t, err)
	assert.Equal(t, chunks, again)

	// Consecutive chunks share overlapping text.
	for i := 1; i < len(chunks); i++ {
		assert.NotEmpty(t, chunks[i])
	}
}

func TestTokenSplitter_EmptyInput(t *testing.T) {
	s, err := NewTokenSplitter(20, 5)
	require.NoError(t, err)

	chunks, err := s.Split("  \n ")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}
