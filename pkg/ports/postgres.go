package ports

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRemoteStore mirrors ratings and selections into Postgres tables.
// It is best-effort per spec.md §7 RemoteUnavailable: every failure is
// logged here and swallowed, never propagated to the caller.
type PostgresRemoteStore struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// NewPostgresRemoteStore connects to Postgres using connString and ensures
// the ratings/selections tables exist.
func NewPostgresRemoteStore(ctx context.Context, connString string, logger *log.Logger) (*PostgresRemoteStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}

	const schema = `
		CREATE TABLE IF NOT EXISTS ratings (
			user_name TEXT NOT NULL,
			name_id   TEXT NOT NULL,
			name      TEXT NOT NULL,
			rating    DOUBLE PRECISION NOT NULL,
			wins      INTEGER NOT NULL,
			losses    INTEGER NOT NULL,
			PRIMARY KEY (user_name, name_id)
		);
		CREATE TABLE IF NOT EXISTS selections (
			user_name     TEXT NOT NULL,
			tournament_id TEXT NOT NULL,
			name_id       TEXT NOT NULL,
			PRIMARY KEY (user_name, tournament_id, name_id)
		);`
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, err
	}

	if logger == nil {
		logger = log.Default()
	}
	return &PostgresRemoteStore{pool: pool, logger: logger}, nil
}

// Close releases the connection pool.
func (p *PostgresRemoteStore) Close() {
	p.pool.Close()
}

// SaveRatings upserts ratings for user. Failures are logged, never
// returned: this method has no error return by design (the interface it
// implements is fire-and-forget).
func (p *PostgresRemoteStore) SaveRatings(user string, ratings []RatingExport) {
	ctx := context.Background()
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		p.logger.Printf("remote store: save ratings for %s: begin tx: %v", user, err)
		return
	}
	defer tx.Rollback(ctx)

	const upsert = `INSERT INTO ratings (user_name, name_id, name, rating, wins, losses)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_name, name_id) DO UPDATE SET
			name = excluded.name, rating = excluded.rating,
			wins = excluded.wins, losses = excluded.losses`
	for _, r := range ratings {
		if _, err := tx.Exec(ctx, upsert, user, r.ID, r.Name, r.Rating, r.Wins, r.Losses); err != nil {
			p.logger.Printf("remote store: save rating %s/%s: %v", user, r.ID, err)
			return
		}
	}
	if err := tx.Commit(ctx); err != nil {
		p.logger.Printf("remote store: save ratings for %s: commit: %v", user, err)
	}
}

// SaveSelections upserts the selected names for a tournament. Failures are
// logged, never returned.
func (p *PostgresRemoteStore) SaveSelections(user string, names []string, tournamentID string) {
	ctx := context.Background()
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		p.logger.Printf("remote store: save selections for %s: begin tx: %v", user, err)
		return
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM selections WHERE user_name = $1 AND tournament_id = $2`, user, tournamentID); err != nil {
		p.logger.Printf("remote store: save selections for %s: clear: %v", user, err)
		return
	}
	const insert = `INSERT INTO selections (user_name, tournament_id, name_id) VALUES ($1, $2, $3)`
	for _, id := range names {
		if _, err := tx.Exec(ctx, insert, user, tournamentID, id); err != nil {
			p.logger.Printf("remote store: save selections for %s: %v", user, err)
			return
		}
	}
	if err := tx.Commit(ctx); err != nil {
		p.logger.Printf("remote store: save selections for %s: commit: %v", user, err)
	}
}
