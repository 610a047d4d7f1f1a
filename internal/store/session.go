package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type sessionRepo struct {
	db  *sql.DB
	now func() time.Time
}

func (r *sessionRepo) Touch(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	query, args := builder().Insert(tableSessions).
		Columns("user_id", "refreshed_at").
		Values(userID, r.now()).
		OnConflict(
			entsql.ConflictColumns("user_id"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

func (r *sessionRepo) LastSeen(ctx context.Context, userID string) (time.Time, error) {
	query, args := builder().Select("refreshed_at").
		From(builder().Table(tableSessions)).
		Where(entsql.EQ("user_id", userID)).
		Query()

	var t time.Time
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&t)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("read session: %w", err)
	}
	return t, nil
}
