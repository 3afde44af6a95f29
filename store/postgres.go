package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrEmptyContent is returned when there is nothing worth persisting
var ErrEmptyContent = errors.New("content is empty")

// Record is a single scored analysis as stored in the analyses table
type Record struct {
	RawContent string    `json:"raw_content"`
	SEOScore   int       `json:"seo_score"`
	GEOScore   int       `json:"geo_score"`
	CreatedAt  time.Time `json:"created_at"`
}

// Saver persists scored analyses
type Saver interface {
	Save(ctx context.Context, rec Record) (int64, error)
}

// row is the subset of pgx.Row used for inserts
type row interface {
	Scan(dest ...any) error
}

// querier is the subset of pgxpool.Pool used by Postgres
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) row
}

type poolQuerier struct {
	pool *pgxpool.Pool
}

func (q poolQuerier) QueryRow(ctx context.Context, sql string, args ...any) row {
	return q.pool.QueryRow(ctx, sql, args...)
}

const insertAnalysis = `
	INSERT INTO analyses (raw_content, seo_score, geo_score, created_at)
	VALUES ($1, $2, $3, $4)
	RETURNING id;
	`

// Postgres stores analyses in a Postgres table. The table is owned by the
// hosting backend, it is never created or migrated here.
type Postgres struct {
	pool *pgxpool.Pool
	db   querier
}

// NewPostgres connects to the database and verifies the connection
func NewPostgres(ctx context.Context, connString string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to reach database: %w", err)
	}

	return &Postgres{pool: pool, db: poolQuerier{pool: pool}}, nil
}

// Save inserts one analysis and returns its generated id
func (p *Postgres) Save(ctx context.Context, rec Record) (int64, error) {
	if rec.RawContent == "" {
		return 0, ErrEmptyContent
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	var id int64
	err := p.db.QueryRow(ctx, insertAnalysis,
		rec.RawContent,
		rec.SEOScore,
		rec.GEOScore,
		rec.CreatedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to save analysis: %w", err)
	}

	return id, nil
}

// Close releases the connection pool
func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}
