package persist

import (
	"context"
	"sort"
	"sync"
	"time"
)

// ScoreRow is one finished run on the leaderboard.
type ScoreRow struct {
	ID         int64
	PlayerName string
	Score      int
	Wave       int
	Victory    bool
	Duration   float64 // seconds of simulated time
	CreatedAt  time.Time
}

// ScoreStore records finished runs and serves the leaderboard. Implemented
// by Postgres when a database is configured and by an in-memory store
// otherwise.
type ScoreStore interface {
	Record(ctx context.Context, row *ScoreRow) error
	Top(ctx context.Context, limit int) ([]ScoreRow, error)
}

type ScoreRepo struct {
	db *DB
}

func NewScoreRepo(db *DB) *ScoreRepo {
	return &ScoreRepo{db: db}
}

func (r *ScoreRepo) Record(ctx context.Context, row *ScoreRow) error {
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO scores (player_name, score, wave, victory, duration)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		row.PlayerName, row.Score, row.Wave, row.Victory, row.Duration,
	).Scan(&row.ID, &row.CreatedAt)
}

func (r *ScoreRepo) Top(ctx context.Context, limit int) ([]ScoreRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, player_name, score, wave, victory, duration, created_at
		 FROM scores ORDER BY score DESC, created_at ASC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ScoreRow
	for rows.Next() {
		var row ScoreRow
		if err := rows.Scan(&row.ID, &row.PlayerName, &row.Score, &row.Wave,
			&row.Victory, &row.Duration, &row.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// MemoryScoreStore keeps scores for the process lifetime. Used when the
// database is disabled in config.
type MemoryScoreStore struct {
	mu     sync.Mutex
	nextID int64
	rows   []ScoreRow
}

func NewMemoryScoreStore() *MemoryScoreStore {
	return &MemoryScoreStore{nextID: 1}
}

func (s *MemoryScoreStore) Record(ctx context.Context, row *ScoreRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row.ID = s.nextID
	s.nextID++
	row.CreatedAt = time.Now()
	s.rows = append(s.rows, *row)
	return nil
}

func (s *MemoryScoreStore) Top(ctx context.Context, limit int) ([]ScoreRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ScoreRow, len(s.rows))
	copy(out, s.rows)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
