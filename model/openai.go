package model

import (
	"context"
	"errors"
	"fmt"
	"os"

	"docvector/types"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIEmbedder uses the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
	dim    int
}

func NewOpenAIEmbedder(model string) (*OpenAIEmbedder, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY environment variable not set", types.ErrInvalidConfiguration)
	}

	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	dim := 1536 // text-embedding-3-small
	if model == string(openai.LargeEmbedding3) {
		dim = 3072
	}

	return &OpenAIEmbedder{
		client: openai.NewClient(key),
		model:  model,
		dim:    dim,
	}, nil
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if len(text) == 0 {
		return nil, fmt.Errorf("%w: cannot embed empty text", types.ErrInvalidArgument)
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: []string{text},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode < 500 && apiErr.HTTPStatusCode != 429 {
			return nil, fmt.Errorf("openai API error: %w", err)
		}
		return nil, fmt.Errorf("%w: openai embeddings: %v", types.ErrUnavailable, err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding data returned from API")
	}

	v := make([]float32, len(resp.Data[0].Embedding))
	copy(v, resp.Data[0].Embedding)

	if len(v) != e.dim {
		return nil, fmt.Errorf("%w: model returned %d dimensions, expected %d",
			types.ErrDimensionMismatch, len(v), e.dim)
	}
	l2normalize(v)

	return v, nil
}

func (e *OpenAIEmbedder) Dimension() int {
	return e.dim
}
