package track

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"geotrack/cmd/identity/ids"
)

// PostgresStore implements position persistence over PostgreSQL.
//
// Design notes:
// - The pgx pool is owned by the caller; this store must NOT close it.
// - Schema/table identifiers are safely quoted to avoid SQL injection via identifiers.
// - Every query filters on user_id; there is no cross-user read path.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the Postgres schema used by the track store (default "geotrack").
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return fmt.Errorf("track: empty schema")
		}
		if !pgIdentRe.MatchString(schema) {
			return fmt.Errorf("track: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore with secure defaults.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{
		pool:   pool,
		schema: "geotrack",
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("track: nil pool")
	}
	return st, nil
}

func (s *PostgresStore) positionsTable() string {
	return pgx.Identifier{s.schema, "positions"}.Sanitize()
}

func (s *PostgresStore) Record(ctx context.Context, in RecordInput) (Position, error) {
	if err := in.Validate(); err != nil {
		return Position{}, err
	}
	if err := ctx.Err(); err != nil {
		return Position{}, err
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	id, err := ids.NewULID(now)
	if err != nil {
		return Position{}, err
	}

	sql := `INSERT INTO ` + s.positionsTable() + `
  (id, user_id, lat, lng, recorded_at)
VALUES ($1, $2, $3, $4, $5)`

	if _, err := s.pool.Exec(ctx, sql, id, in.UserID, in.Lat, in.Lng, now); err != nil {
		return Position{}, fmt.Errorf("track: record position: %w", err)
	}

	return Position{
		ID:         id,
		UserID:     in.UserID,
		Lat:        in.Lat,
		Lng:        in.Lng,
		RecordedAt: now,
	}, nil
}

func (s *PostgresStore) LastByUser(ctx context.Context, userID string) (Position, error) {
	if userID == "" {
		return Position{}, ErrNoPositions
	}

	sql := `SELECT id, user_id, lat, lng, recorded_at
FROM ` + s.positionsTable() + `
WHERE user_id = $1
ORDER BY id DESC
LIMIT 1`

	var pos Position
	err := s.pool.QueryRow(ctx, sql, userID).
		Scan(&pos.ID, &pos.UserID, &pos.Lat, &pos.Lng, &pos.RecordedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Position{}, ErrNoPositions
		}
		return Position{}, fmt.Errorf("track: last position: %w", err)
	}
	return pos, nil
}

func (s *PostgresStore) RecentByUser(ctx context.Context, userID string, limit int) ([]Position, error) {
	if userID == "" || limit <= 0 {
		return nil, nil
	}

	sql := `SELECT id, user_id, lat, lng, recorded_at
FROM ` + s.positionsTable() + `
WHERE user_id = $1
ORDER BY id DESC
LIMIT $2`

	rows, err := s.pool.Query(ctx, sql, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("track: recent positions: %w", err)
	}
	defer rows.Close()

	return scanPositions(rows)
}

func (s *PostgresStore) SinceByUser(ctx context.Context, userID, afterID string, limit int) ([]Position, error) {
	if userID == "" || limit <= 0 {
		return nil, nil
	}

	sql := `SELECT id, user_id, lat, lng, recorded_at
FROM ` + s.positionsTable() + `
WHERE user_id = $1 AND id > $2
ORDER BY id ASC
LIMIT $3`

	rows, err := s.pool.Query(ctx, sql, userID, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("track: positions since: %w", err)
	}
	defer rows.Close()

	return scanPositions(rows)
}

func scanPositions(rows pgx.Rows) ([]Position, error) {
	var out []Position
	for rows.Next() {
		var pos Position
		if err := rows.Scan(&pos.ID, &pos.UserID, &pos.Lat, &pos.Lng, &pos.RecordedAt); err != nil {
			return nil, fmt.Errorf("track: scan position: %w", err)
		}
		out = append(out, pos)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("track: iterate positions: %w", err)
	}
	return out, nil
}
