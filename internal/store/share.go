package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

// ShareCodeLength is the number of characters in a share code.
const ShareCodeLength = 8

// maxCodeAttempts bounds share code regeneration on collision.
const maxCodeAttempts = 5

type shareRepo struct {
	db      *sql.DB
	now     func() time.Time
	newCode func() string
}

// newShareCode derives an uppercase alphanumeric code from a random uuid.
func newShareCode() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(id[:ShareCodeLength])
}

func (r *shareRepo) Save(ctx context.Context, q SharedQuiz) (string, error) {
	if len(q.Questions) == 0 {
		return "", fmt.Errorf("shared quiz has no questions")
	}
	body, err := json.Marshal(q.Questions)
	if err != nil {
		return "", fmt.Errorf("marshal questions: %w", err)
	}

	now := r.now()
	for range maxCodeAttempts {
		code := r.newCode()
		query, args := builder().Insert(tableShares).
			Columns("share_code", "created_by", "topic", "questions", "created_at").
			Values(code, q.CreatedBy, q.Topic, string(body), now).
			OnConflict(
				entsql.ConflictColumns("share_code"),
				entsql.DoNothing(),
			).
			Query()
		res, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return "", fmt.Errorf("save shared quiz: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 1 {
			return code, nil
		}
	}
	return "", fmt.Errorf("save shared quiz: no free share code after %d attempts", maxCodeAttempts)
}

func (r *shareRepo) Get(ctx context.Context, code string) (*SharedQuiz, error) {
	query, args := builder().Select("share_code", "created_by", "topic", "questions", "created_at").
		From(builder().Table(tableShares)).
		Where(entsql.EQ("share_code", strings.ToUpper(strings.TrimSpace(code)))).
		Query()

	var q SharedQuiz
	var body string
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&q.Code, &q.CreatedBy, &q.Topic, &body, &q.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get shared quiz: %w", err)
	}
	if err := json.Unmarshal([]byte(body), &q.Questions); err != nil {
		return nil, fmt.Errorf("decode shared quiz %s: %w", q.Code, err)
	}
	return &q, nil
}
