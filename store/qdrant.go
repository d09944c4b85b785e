package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"docvector/types"

	"github.com/google/uuid"
)

// QdrantStore is a minimal REST client to Qdrant implementing the
// VectorStorer contract.
type QdrantStore struct {
	url    string
	apiKey string
	client *http.Client
}

type QdrantConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

func NewQdrantStore(cfg QdrantConfig) *QdrantStore {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &QdrantStore{
		url:    cfg.URL,
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: timeout},
	}
}

type qdrantCollectionInfo struct {
	Result struct {
		Config struct {
			Params struct {
				Vectors struct {
					Size     int    `json:"size"`
					Distance string `json:"distance"`
				} `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	} `json:"result"`
}

func (s *QdrantStore) CreateCollection(ctx context.Context, name string, dimension int, metric string) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: dimension must be positive, got %d", types.ErrInvalidConfiguration, dimension)
	}

	var info qdrantCollectionInfo
	status, err := s.do(ctx, http.MethodGet, fmt.Sprintf("%s/collections/%s", s.url, name), nil, &info)
	if err != nil {
		return err
	}
	if status == http.StatusOK {
		got := info.Result.Config.Params.Vectors
		if got.Size != dimension || got.Distance != metric {
			return fmt.Errorf("%w: collection %q exists with size=%d distance=%s, want size=%d distance=%s",
				types.ErrConfigurationConflict, name, got.Size, got.Distance, dimension, metric)
		}
		return nil
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": metric,
		},
	}
	status, err = s.do(ctx, http.MethodPut, fmt.Sprintf("%s/collections/%s", s.url, name), body, nil)
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("qdrant create collection %q failed: status %d", name, status)
	}
	return nil
}

func (s *QdrantStore) Upsert(ctx context.Context, collection string, points []types.Point) error {
	if len(points) == 0 {
		return nil
	}
	qpoints := make([]map[string]any, len(points))
	for i, p := range points {
		qpoints[i] = map[string]any{
			"id":     p.ID.String(),
			"vector": p.Vector,
			"payload": map[string]any{
				"document_id":  p.Payload.DocumentID.String(),
				"filename":     p.Payload.Filename,
				"chunk_index":  p.Payload.ChunkIndex,
				"text":         p.Payload.Text,
				"total_chunks": p.Payload.TotalChunks,
			},
		}
	}

	body := map[string]any{"points": qpoints}
	status, err := s.do(ctx, http.MethodPut, fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, collection), body, nil)
	if err != nil {
		return err
	}
	switch {
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %q", types.ErrCollectionNotFound, collection)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: qdrant rejected points for %q", types.ErrDimensionMismatch, collection)
	case status >= 300:
		return fmt.Errorf("qdrant upsert into %q failed: status %d", collection, status)
	}
	return nil
}

func (s *QdrantStore) Search(ctx context.Context, collection string, vector []float32, topK int) ([]types.ScoredPoint, error) {
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			ID      string        `json:"id"`
			Score   float64       `json:"score"`
			Payload types.Payload `json:"payload"`
		} `json:"result"`
	}
	status, err := s.do(ctx, http.MethodPost, fmt.Sprintf("%s/collections/%s/points/search", s.url, collection), req, &resp)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %q", types.ErrCollectionNotFound, collection)
	}
	if status >= 300 {
		return nil, fmt.Errorf("qdrant search in %q failed: status %d", collection, status)
	}

	results := make([]types.ScoredPoint, 0, len(resp.Result))
	for _, r := range resp.Result {
		id, _ := uuid.Parse(r.ID)
		results = append(results, types.ScoredPoint{
			ID:      id,
			Score:   r.Score,
			Payload: r.Payload,
		})
	}
	return results, nil
}

func (s *QdrantStore) DeleteByDocument(ctx context.Context, collection string, docID uuid.UUID) (int, error) {
	filter := map[string]any{
		"must": []map[string]any{
			{"key": "document_id", "match": map[string]any{"value": docID.String()}},
		},
	}

	// Qdrant's delete API does not report how many points matched, so count
	// first, then delete with the same filter.
	var countResp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	status, err := s.do(ctx, http.MethodPost, fmt.Sprintf("%s/collections/%s/points/count", s.url, collection),
		map[string]any{"filter": filter, "exact": true}, &countResp)
	if err != nil {
		return 0, err
	}
	if status == http.StatusNotFound {
		return 0, nil
	}
	if status >= 300 {
		return 0, fmt.Errorf("qdrant count in %q failed: status %d", collection, status)
	}
	if countResp.Result.Count == 0 {
		return 0, nil
	}

	status, err = s.do(ctx, http.MethodPost, fmt.Sprintf("%s/collections/%s/points/delete?wait=true", s.url, collection),
		map[string]any{"filter": filter}, nil)
	if err != nil {
		return 0, err
	}
	if status >= 300 {
		return 0, fmt.Errorf("qdrant delete in %q failed: status %d", collection, status)
	}
	return countResp.Result.Count, nil
}

func (s *QdrantStore) ListDocuments(ctx context.Context, collection string) ([]types.Document, error) {
	var payloads []types.Payload
	var offset any

	for {
		req := map[string]any{
			"limit":        256,
			"with_payload": true,
		}
		if offset != nil {
			req["offset"] = offset
		}

		var resp struct {
			Result struct {
				Points []struct {
					Payload types.Payload `json:"payload"`
				} `json:"points"`
				NextPageOffset any `json:"next_page_offset"`
			} `json:"result"`
		}
		status, err := s.do(ctx, http.MethodPost, fmt.Sprintf("%s/collections/%s/points/scroll", s.url, collection), req, &resp)
		if err != nil {
			return nil, err
		}
		if status == http.StatusNotFound {
			return nil, nil
		}
		if status >= 300 {
			return nil, fmt.Errorf("qdrant scroll in %q failed: status %d", collection, status)
		}

		for _, p := range resp.Result.Points {
			payloads = append(payloads, p.Payload)
		}
		if resp.Result.NextPageOffset == nil {
			break
		}
		offset = resp.Result.NextPageOffset
	}

	return aggregateDocuments(payloads), nil
}

// do issues one JSON request and decodes the response when out is non-nil.
// Transport failures map to ErrUnavailable; HTTP statuses are returned for
// the caller to interpret per endpoint.
func (s *QdrantStore) do(ctx context.Context, method, url string, body any, out any) (int, error) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: qdrant %s %s: %v", types.ErrUnavailable, method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return resp.StatusCode, fmt.Errorf("%w: qdrant %s %s: status %s", types.ErrUnavailable, method, url, resp.Status)
	}
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode qdrant response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
