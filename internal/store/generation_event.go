package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

var generationSelect = []string{
	"id", "timestamp", "user_id", "topic", "outcome",
	"detail", "question_count", "latency_ms",
}

func (r *eventRepo) AppendGeneration(ctx context.Context, data GenerationEventData) error {
	query, args := builder().Insert(tableGenerations).
		Columns(generationSelect[1:]...).
		Values(
			r.now(),
			data.UserID,
			data.Topic,
			data.Outcome,
			data.Detail,
			data.QuestionCount,
			data.LatencyMs,
		).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save generation event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryGenerations(ctx context.Context, opts QueryOpts) ([]GenerationEvent, error) {
	sel := builder().Select(generationSelect...).
		From(builder().Table(tableGenerations)).
		OrderBy(entsql.Desc("id"))
	applyTimeRange(sel, opts)
	if opts.UserID != "" {
		sel.Where(entsql.EQ("user_id", opts.UserID))
	}
	if opts.Outcome != "" {
		sel.Where(entsql.EQ("outcome", opts.Outcome))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query generation events: %w", err)
	}
	defer rows.Close()

	var events []GenerationEvent
	for rows.Next() {
		var e GenerationEvent
		if err := rows.Scan(
			&e.ID,
			&e.Timestamp,
			&e.UserID,
			&e.Topic,
			&e.Outcome,
			&e.Detail,
			&e.QuestionCount,
			&e.LatencyMs,
		); err != nil {
			return nil, fmt.Errorf("scan generation event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
