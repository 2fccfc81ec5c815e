package index

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/patchline/corpusqa/internal/domain"
)

// Postgres is a pgvector-backed Index for durable corpora. Cosine
// ordering uses the `<=>` distance operator; the monotone position
// column carries the insertion-order tie-break the contract requires.
type Postgres struct {
	pool       *pgxpool.Pool
	dimensions int
}

// NewPostgres creates a Postgres index. dimensions must match the
// vector column width of the chunks table.
func NewPostgres(pool *pgxpool.Pool, dimensions int) *Postgres {
	if dimensions <= 0 {
		dimensions = 1536
	}
	return &Postgres{pool: pool, dimensions: dimensions}
}

func (p *Postgres) Upsert(ctx context.Context, chunk domain.Chunk) error {
	if err := domain.ValidateChunk(&chunk); err != nil {
		return domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid chunk", err)
	}
	if len(chunk.Embedding) != p.dimensions {
		return domain.IndexInconsistent(p.dimensions, len(chunk.Embedding))
	}

	createdAt := chunk.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	// Replacing keeps the row's original position so tie-break order is
	// stable across overwrites.
	_, err := p.pool.Exec(ctx,
		`INSERT INTO chunks (filename, content, embedding, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (filename)
		 DO UPDATE SET content = EXCLUDED.content, embedding = EXCLUDED.embedding`,
		chunk.Filename,
		chunk.Text,
		pgvector.NewVector(chunk.Embedding),
		createdAt,
	)
	return err
}

func (p *Postgres) Delete(ctx context.Context, filename string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM chunks WHERE filename = $1`, filename)
	return err
}

func (p *Postgres) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	if prefix == "" {
		return 0, nil
	}
	// left() comparison avoids LIKE-escaping the underscores chunk names
	// always contain.
	tag, err := p.pool.Exec(ctx,
		`DELETE FROM chunks WHERE left(filename, length($1::text)) = $1`, prefix)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (p *Postgres) List(ctx context.Context) ([]domain.Chunk, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT filename, content, embedding, created_at FROM chunks ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chunks := make([]domain.Chunk, 0)
	for rows.Next() {
		var c domain.Chunk
		var vec pgvector.Vector
		if err := rows.Scan(&c.Filename, &c.Text, &vec, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Embedding = vec.Slice()
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func (p *Postgres) Search(ctx context.Context, vector []float32, k int) ([]domain.QueryResult, error) {
	if k <= 0 {
		return []domain.QueryResult{}, nil
	}

	// pgvector's cosine distance is undefined for a zero-norm query; the
	// contract defines similarity 0.0 for that case, which makes every
	// record tie and insertion order decide.
	if isZeroVector(vector) {
		return p.searchZero(ctx, k)
	}

	// Cosine distance against a zero-norm stored row is NaN; the contract
	// pins its similarity at 0.0, same as the zero-norm query case.
	rows, err := p.pool.Query(ctx,
		`SELECT filename, content, embedding, created_at,
		        CASE WHEN vector_norm(embedding) = 0 THEN 0.0
		             ELSE 1 - (embedding <=> $1) END AS similarity
		 FROM chunks
		 ORDER BY similarity DESC, position ASC
		 LIMIT $2`,
		pgvector.NewVector(vector), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanResults(rows)
}

func (p *Postgres) Len(ctx context.Context) (int, error) {
	var n int
	err := p.pool.QueryRow(ctx, `SELECT count(*) FROM chunks`).Scan(&n)
	return n, err
}

func (p *Postgres) searchZero(ctx context.Context, k int) ([]domain.QueryResult, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT filename, content, embedding, created_at, 0.0 AS similarity
		 FROM chunks ORDER BY position ASC LIMIT $1`, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanResults(rows)
}

type pgRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanResults(rows pgRows) ([]domain.QueryResult, error) {
	results := make([]domain.QueryResult, 0)
	for rows.Next() {
		var r domain.QueryResult
		var vec pgvector.Vector
		if err := rows.Scan(&r.Chunk.Filename, &r.Chunk.Text, &vec, &r.Chunk.CreatedAt, &r.Similarity); err != nil {
			return nil, err
		}
		r.Chunk.Embedding = vec.Slice()
		results = append(results, r)
	}
	return results, rows.Err()
}
