package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"docvector/types"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PostgresStore keeps vectors in Postgres with the pgvector extension. Each
// collection maps to one table plus a row in vector_collections recording
// its dimension and metric for conflict detection.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: postgres ping: %v", types.ErrUnavailable, err)
	}

	return &PostgresStore{
		pool: pool,
	}, nil
}

func postgresConnStr() string {
	port, _ := strconv.Atoi(os.Getenv("PG_PORT"))
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		os.Getenv("PG_HOST"), port, os.Getenv("PG_USER"), os.Getenv("PG_PASS"), os.Getenv("PG_DB_NAME"))
}

func (p *PostgresStore) CreateCollection(ctx context.Context, name string, dimension int, metric string) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: dimension must be positive, got %d", types.ErrInvalidConfiguration, dimension)
	}

	setup := `
    CREATE EXTENSION IF NOT EXISTS vector;

	CREATE TABLE IF NOT EXISTS vector_collections (
		name TEXT PRIMARY KEY,
		dimension INT NOT NULL,
		metric TEXT NOT NULL
	);
    `
	if _, err := p.pool.Exec(ctx, setup); err != nil {
		return fmt.Errorf("%w: create metadata tables: %v", types.ErrUnavailable, err)
	}

	var gotDim int
	var gotMetric string
	err := p.pool.QueryRow(ctx,
		"SELECT dimension, metric FROM vector_collections WHERE name = $1", name).
		Scan(&gotDim, &gotMetric)
	if err == nil {
		if gotDim != dimension || gotMetric != metric {
			return fmt.Errorf("%w: collection %q exists with dimension=%d metric=%s",
				types.ErrConfigurationConflict, name, gotDim, gotMetric)
		}
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: query collection metadata: %v", types.ErrUnavailable, err)
	}

	table := pgx.Identifier{name}.Sanitize()
	query := fmt.Sprintf(`
    CREATE TABLE IF NOT EXISTS %s (
        id UUID PRIMARY KEY,
        document_id UUID NOT NULL,
        filename TEXT NOT NULL,
        chunk_index INT NOT NULL,
        text TEXT NOT NULL,
        total_chunks INT NOT NULL,
        embedding vector(%d) NOT NULL
    );

	CREATE INDEX IF NOT EXISTS %s ON %s USING ivfflat (embedding vector_cosine_ops)
	WITH (lists = 100);

	CREATE INDEX IF NOT EXISTS %s ON %s (document_id);
    `,
		table, dimension,
		pgx.Identifier{"idx_" + name + "_embedding"}.Sanitize(), table,
		pgx.Identifier{"idx_" + name + "_document_id"}.Sanitize(), table,
	)
	if _, err := p.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create collection table: %w", err)
	}

	_, err = p.pool.Exec(ctx,
		`INSERT INTO vector_collections (name, dimension, metric) VALUES ($1, $2, $3)
		 ON CONFLICT (name) DO NOTHING`,
		name, dimension, metric)
	if err != nil {
		return fmt.Errorf("register collection: %w", err)
	}
	return nil
}

func (p *PostgresStore) Upsert(ctx context.Context, collection string, points []types.Point) error {
	dim, err := p.collectionDimension(ctx, collection)
	if err != nil {
		return err
	}
	for _, pt := range points {
		if len(pt.Vector) != dim {
			return fmt.Errorf("%w: vector has %d dimensions, collection %q expects %d",
				types.ErrDimensionMismatch, len(pt.Vector), collection, dim)
		}
	}

	query := fmt.Sprintf(`
    INSERT INTO %s (id, document_id, filename, chunk_index, text, total_chunks, embedding)
    VALUES ($1, $2, $3, $4, $5, $6, $7)
    ON CONFLICT (id) DO UPDATE SET
        document_id = EXCLUDED.document_id,
        filename = EXCLUDED.filename,
        chunk_index = EXCLUDED.chunk_index,
        text = EXCLUDED.text,
        total_chunks = EXCLUDED.total_chunks,
        embedding = EXCLUDED.embedding
    `, pgx.Identifier{collection}.Sanitize())

	for _, pt := range points {
		_, err := p.pool.Exec(ctx, query,
			pt.ID, pt.Payload.DocumentID, pt.Payload.Filename, pt.Payload.ChunkIndex,
			pt.Payload.Text, pt.Payload.TotalChunks, pgvector.NewVector(pt.Vector),
		)
		if err != nil {
			return fmt.Errorf("%w: upsert point %s: %v", types.ErrUnavailable, pt.ID, err)
		}
	}
	return nil
}

func (p *PostgresStore) Search(ctx context.Context, collection string, vector []float32, topK int) ([]types.ScoredPoint, error) {
	dim, err := p.collectionDimension(ctx, collection)
	if err != nil {
		return nil, err
	}
	if len(vector) != dim {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, collection %q expects %d",
			types.ErrDimensionMismatch, len(vector), collection, dim)
	}

	query := fmt.Sprintf(`
		SELECT id, document_id, filename, chunk_index, text, total_chunks,
		       1 - (embedding <=> $1) AS score
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2
	`, pgx.Identifier{collection}.Sanitize())

	rows, err := p.pool.Query(ctx, query, pgvector.NewVector(vector), topK)
	if err != nil {
		return nil, fmt.Errorf("%w: search %q: %v", types.ErrUnavailable, collection, err)
	}
	defer rows.Close()

	var results []types.ScoredPoint
	for rows.Next() {
		var sp types.ScoredPoint
		if err := rows.Scan(
			&sp.ID,
			&sp.Payload.DocumentID,
			&sp.Payload.Filename,
			&sp.Payload.ChunkIndex,
			&sp.Payload.Text,
			&sp.Payload.TotalChunks,
			&sp.Score); err != nil {
			return nil, err
		}
		results = append(results, sp)
	}
	return results, rows.Err()
}

func (p *PostgresStore) DeleteByDocument(ctx context.Context, collection string, docID uuid.UUID) (int, error) {
	if _, err := p.collectionDimension(ctx, collection); err != nil {
		if errors.Is(err, types.ErrCollectionNotFound) {
			return 0, nil
		}
		return 0, err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE document_id = $1", pgx.Identifier{collection}.Sanitize())
	tag, err := p.pool.Exec(ctx, query, docID)
	if err != nil {
		return 0, fmt.Errorf("%w: delete document %s: %v", types.ErrUnavailable, docID, err)
	}
	return int(tag.RowsAffected()), nil
}

func (p *PostgresStore) ListDocuments(ctx context.Context, collection string) ([]types.Document, error) {
	if _, err := p.collectionDimension(ctx, collection); err != nil {
		if errors.Is(err, types.ErrCollectionNotFound) {
			return nil, nil
		}
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT document_id, filename, total_chunks, COUNT(*)
		FROM %s
		GROUP BY document_id, filename, total_chunks
		ORDER BY document_id
	`, pgx.Identifier{collection}.Sanitize())

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: list documents: %v", types.ErrUnavailable, err)
	}
	defer rows.Close()

	var docs []types.Document
	for rows.Next() {
		var doc types.Document
		if err := rows.Scan(&doc.ID, &doc.Filename, &doc.TotalChunks, &doc.ChunksProcessed); err != nil {
			return nil, err
		}
		if doc.Complete() {
			doc.Status = types.StatusComplete
		} else {
			doc.Status = types.StatusProcessing
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (p *PostgresStore) collectionDimension(ctx context.Context, collection string) (int, error) {
	var dim int
	err := p.pool.QueryRow(ctx,
		"SELECT dimension FROM vector_collections WHERE name = $1", collection).Scan(&dim)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%w: %q", types.ErrCollectionNotFound, collection)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: query collection metadata: %v", types.ErrUnavailable, err)
	}
	return dim, nil
}

// Close закрывает пул подключений
func (p *PostgresStore) Close() error {
	if p.pool != nil {
		p.pool.Close()
		log.Println("Postgres connection pool is closed")
	}
	return nil
}
