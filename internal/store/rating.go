package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type ratingRepo struct {
	db  *sql.DB
	now func() time.Time
}

var ratingSelect = []string{
	"question_id", "question_text", "topic", "upvotes", "downvotes", "updated_at",
}

func (r *ratingRepo) Rate(ctx context.Context, in RatingInput) (*Rating, error) {
	if in.QuestionID == "" {
		return nil, fmt.Errorf("question id is required")
	}

	var column string
	var up, down int
	switch in.Vote {
	case VoteUp:
		column, up = "upvotes", 1
	case VoteDown:
		column, down = "downvotes", 1
	default:
		return nil, fmt.Errorf("invalid vote %d", in.Vote)
	}

	now := r.now()
	var rating *Rating
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		query, args := builder().Insert(tableRatings).
			Columns("question_id", "question_text", "topic", "upvotes", "downvotes", "updated_at").
			Values(in.QuestionID, in.QuestionText, in.Topic, up, down, now).
			OnConflict(
				entsql.ConflictColumns("question_id"),
				entsql.ResolveWith(func(u *entsql.UpdateSet) {
					u.Add(column, 1)
					u.Set("updated_at", now)
				}),
			).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert rating: %w", err)
		}

		var err error
		rating, err = getRating(ctx, tx, in.QuestionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rating, nil
}

func (r *ratingRepo) Get(ctx context.Context, questionID string) (*Rating, error) {
	rating, err := getRating(ctx, r.db, questionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rating, err
}

func (r *ratingRepo) List(ctx context.Context, limit int) ([]Rating, error) {
	sel := builder().Select(ratingSelect...).
		From(builder().Table(tableRatings)).
		OrderBy(entsql.Desc("updated_at"), entsql.Desc("id"))
	if limit > 0 {
		sel.Limit(limit)
	}

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ratings: %w", err)
	}
	defer rows.Close()

	var out []Rating
	for rows.Next() {
		var rt Rating
		if err := scanRating(rows, &rt); err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

// queryRower is satisfied by *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getRating(ctx context.Context, q queryRower, questionID string) (*Rating, error) {
	query, args := builder().Select(ratingSelect...).
		From(builder().Table(tableRatings)).
		Where(entsql.EQ("question_id", questionID)).
		Query()

	var rt Rating
	if err := scanRating(q.QueryRowContext(ctx, query, args...), &rt); err != nil {
		return nil, err
	}
	return &rt, nil
}

func scanRating(row rowScanner, rt *Rating) error {
	err := row.Scan(&rt.QuestionID, &rt.QuestionText, &rt.Topic, &rt.Upvotes, &rt.Downvotes, &rt.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if err != nil {
		return fmt.Errorf("scan rating: %w", err)
	}
	return nil
}
