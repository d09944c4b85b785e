package types

import (
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
)

type DocumentStatus string

const (
	StatusProcessing DocumentStatus = "processing"
	StatusComplete   DocumentStatus = "complete"
	StatusFailed     DocumentStatus = "failed"
)

// Chunk is one overlapping window of a document's text, the unit of
// embedding and retrieval.
type Chunk struct {
	DocID     uuid.UUID
	Index     int
	Content   string
	Embedding []float32
}

type Document struct {
	ID              uuid.UUID      `json:"document_id"`
	Filename        string         `json:"filename"`
	TotalChunks     int            `json:"total_chunks"`
	ChunksProcessed int            `json:"chunks_processed"`
	Status          DocumentStatus `json:"status"`
	CreatedAt       time.Time      `json:"created_at"`
}

func (d *Document) Complete() bool {
	return d.ChunksProcessed == d.TotalChunks
}

// Payload is the fixed metadata record stored next to every vector and
// returned on search.
type Payload struct {
	DocumentID  uuid.UUID `json:"document_id"`
	Filename    string    `json:"filename"`
	ChunkIndex  int       `json:"chunk_index"`
	Text        string    `json:"text"`
	TotalChunks int       `json:"total_chunks"`
}

// Point pairs a chunk embedding with its payload under a deterministic ID,
// so re-ingesting the same chunk overwrites instead of duplicating.
type Point struct {
	ID      uuid.UUID
	Vector  []float32
	Payload Payload
}

// PointID derives the point identity from (document, chunk index).
func PointID(docID uuid.UUID, chunkIndex int) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(docID.String()+"_"+strconv.Itoa(chunkIndex)))
}

type ScoredPoint struct {
	ID      uuid.UUID
	Score   float64
	Payload Payload
}

type SearchResult struct {
	Score       float64   `json:"score"`
	DocumentID  uuid.UUID `json:"document_id"`
	Filename    string    `json:"filename"`
	ChunkIndex  int       `json:"chunk_index"`
	Text        string    `json:"text"`
	TotalChunks int       `json:"total_chunks"`
}

type Config struct {
	ServerAddr    string
	VectorBackend string
	QdrantURL     string
	QdrantAPIKey  string
	Collection    string
	EmbedderType  string
	EmbeddingDim  int
	ChunkSize     int
	ChunkOverlap  int
	ChunkUnit     string
	Workers       int
	MaxAttempts   int
}

// LoadConfig reads settings from the environment with defaults matching the
// reference deployment.
func LoadConfig() Config {
	return Config{
		ServerAddr:    envStr("SERVER_ADDR", ":8000"),
		VectorBackend: envStr("VECTOR_BACKEND", "qdrant"),
		QdrantURL:     envStr("QDRANT_URL", "http://localhost:6333"),
		QdrantAPIKey:  os.Getenv("QDRANT_API_KEY"),
		Collection:    envStr("COLLECTION_NAME", "pdf_documents"),
		EmbedderType:  envStr("EMBEDDER", "ollama"),
		EmbeddingDim:  envInt("EMBEDDING_DIM", 768),
		ChunkSize:     envInt("CHUNK_SIZE", 1000),
		ChunkOverlap:  envInt("CHUNK_OVERLAP", 200),
		ChunkUnit:     envStr("CHUNK_UNIT", "chars"),
		Workers:       envInt("INGEST_WORKERS", 4),
		MaxAttempts:   envInt("MAX_ATTEMPTS", 3),
	}
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}
