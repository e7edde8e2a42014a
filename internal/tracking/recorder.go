package tracking

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	createTableStm = `CREATE TABLE IF NOT EXISTS user_logs (
    id SERIAL PRIMARY KEY,
    ip TEXT,
    country TEXT,
    city TEXT,
    format TEXT,
    filename TEXT,
    started_at TIMESTAMP,
    finished_at TIMESTAMP,
    duration_seconds INTEGER
);`
	insertLogStm = `INSERT INTO user_logs (ip, country, city, format, filename, started_at, finished_at, duration_seconds)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
)

// DownloadLog is one finished download.
type DownloadLog struct {
	IP         string
	Country    string
	City       string
	Format     string
	Filename   string
	StartedAt  time.Time
	FinishedAt time.Time
}

func (l DownloadLog) DurationSeconds() int {
	return int(l.FinishedAt.Sub(l.StartedAt).Seconds())
}

type Recorder interface {
	Record(ctx context.Context, entry DownloadLog) error
	Close()
}

type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// PgRecorder writes download logs to the user_logs table.
type PgRecorder struct {
	db   execer
	pool *pgxpool.Pool
	geo  *GeoLocator
}

func NewPgRecorder(ctx context.Context, dsn string, geo *GeoLocator) (*PgRecorder, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse tracking dsn: %w", err)
	}
	cfg.MaxConns = 4
	cfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracking pool: %w", err)
	}

	return &PgRecorder{db: pool, pool: pool, geo: geo}, nil
}

func (r *PgRecorder) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, createTableStm); err != nil {
		return fmt.Errorf("failed to create user_logs table: %w", err)
	}
	return nil
}

// Record resolves the client location when missing and inserts the row.
func (r *PgRecorder) Record(ctx context.Context, entry DownloadLog) error {
	if entry.Country == "" && entry.City == "" && r.geo != nil {
		entry.Country, entry.City = r.geo.Lookup(ctx, entry.IP)
	}

	_, err := r.db.Exec(ctx, insertLogStm,
		entry.IP,
		entry.Country,
		entry.City,
		entry.Format,
		entry.Filename,
		entry.StartedAt,
		entry.FinishedAt,
		entry.DurationSeconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert download log: %w", err)
	}

	zap.S().Named("tracking").Debugw("download logged", "ip", entry.IP, "file", entry.Filename)
	return nil
}

func (r *PgRecorder) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}

// NoopRecorder is used when no tracking database is configured.
type NoopRecorder struct{}

func (NoopRecorder) Record(context.Context, DownloadLog) error { return nil }

func (NoopRecorder) Close() {}
