package auth

import (
	"database/sql"
	"errors"
	"time"

	"gorm.io/gorm"
)

// CounterStore persists login attempt counters so the throttle survives
// restarts and is shared between instances. The upsert resets expired
// windows and increments live ones in one statement, so concurrent
// attempts are never lost.
type CounterStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewCounterStore(db *gorm.DB) *CounterStore {
	return &CounterStore{
		db:  db,
		now: time.Now,
	}
}

const incrQuery = `
INSERT INTO login_attempts (key, count, expires_at)
VALUES (?, 1, ?)
ON CONFLICT (key) DO UPDATE SET
    count = CASE WHEN login_attempts.expires_at < ? THEN 1 ELSE login_attempts.count + 1 END,
    expires_at = CASE WHEN login_attempts.expires_at < ? THEN excluded.expires_at ELSE login_attempts.expires_at END
RETURNING count
`

func (s *CounterStore) Incr(key string, window time.Duration) (int, error) {
	now := s.now()
	var count int
	err := s.db.Raw(incrQuery, key, now.Add(window), now, now).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *CounterStore) Count(key string) (int, error) {
	var count int
	err := s.db.Raw(
		"SELECT count FROM login_attempts WHERE key = ? AND expires_at >= ?",
		key, s.now(),
	).Row().Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return count, nil
}

func (s *CounterStore) Reset(key string) error {
	return s.db.Exec("DELETE FROM login_attempts WHERE key = ?", key).Error
}
