package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type progressRepo struct {
	db  *sql.DB
	now func() time.Time
}

func (r *progressRepo) Track(ctx context.Context, userID string) (int, error) {
	now := r.now()
	return r.upsert(ctx, userID, 0, func(u *entsql.UpdateSet) {
		u.Set("last_active", now)
	})
}

func (r *progressRepo) Increment(ctx context.Context, userID string) (int, error) {
	now := r.now()
	return r.upsert(ctx, userID, 1, func(u *entsql.UpdateSet) {
		u.Add("total_questions", 1)
		u.Set("last_active", now)
	})
}

// upsert inserts the user with an initial total or applies resolve to the
// existing row, then reads the total back in the same transaction.
func (r *progressRepo) upsert(ctx context.Context, userID string, initial int, resolve func(*entsql.UpdateSet)) (int, error) {
	if userID == "" {
		return 0, fmt.Errorf("user id is required")
	}

	var total int
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		query, args := builder().Insert(tableProgress).
			Columns("user_id", "total_questions", "last_active").
			Values(userID, initial, r.now()).
			OnConflict(
				entsql.ConflictColumns("user_id"),
				entsql.ResolveWith(resolve),
			).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert progress: %w", err)
		}

		query, args = builder().Select("total_questions").
			From(builder().Table(tableProgress)).
			Where(entsql.EQ("user_id", userID)).
			Query()
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
			return fmt.Errorf("read progress: %w", err)
		}
		return nil
	})
	return total, err
}

func (r *progressRepo) Get(ctx context.Context, userID string) (*Progress, error) {
	query, args := builder().Select("user_id", "total_questions", "last_active").
		From(builder().Table(tableProgress)).
		Where(entsql.EQ("user_id", userID)).
		Query()

	var p Progress
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&p.UserID, &p.TotalQuestions, &p.LastActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}
	return &p, nil
}

func (r *progressRepo) Top(ctx context.Context, n int) ([]Progress, error) {
	sel := builder().Select("user_id", "total_questions", "last_active").
		From(builder().Table(tableProgress)).
		OrderBy(entsql.Desc("total_questions"), "user_id")
	if n > 0 {
		sel.Limit(n)
	}

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query top progress: %w", err)
	}
	defer rows.Close()

	var out []Progress
	for rows.Next() {
		var p Progress
		if err := rows.Scan(&p.UserID, &p.TotalQuestions, &p.LastActive); err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// withTx runs fn in a transaction, committing on success.
func withTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
