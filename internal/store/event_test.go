package store

import (
	"context"
	"testing"
	"time"
)

func TestEvents_LLMAppendAndQuery(t *testing.T) {
	s := openTestStore(t)
	advance := fixedClock(s, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	repo := s.EventRepo()
	ctx := context.Background()

	for i, purpose := range []string{"question-gen", "question-gen", "preview"} {
		advance(time.Second)
		err := repo.AppendLLMRequest(ctx, LLMRequestEventData{
			Provider:     "openrouter",
			Model:        "google/gemini-2.0-flash-exp",
			Purpose:      purpose,
			InputTokens:  100 * (i + 1),
			OutputTokens: 10 * (i + 1),
			LatencyMs:    int64(200 * (i + 1)),
			Success:      i != 2,
			RequestBody:  "[user]\nhello",
			ResponseBody: `{"questions":[]}`,
		})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	events, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 2})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len = %d, want 2", len(events))
	}
	if events[0].Purpose != "preview" || events[0].Success {
		t.Errorf("newest event = %+v", events[0])
	}

	filtered, err := repo.QueryLLMEvents(ctx, QueryOpts{Purpose: "question-gen"})
	if err != nil {
		t.Fatalf("query purpose: %v", err)
	}
	if len(filtered) != 2 {
		t.Errorf("purpose filter returned %d events, want 2", len(filtered))
	}

	windowed, err := repo.QueryLLMEvents(ctx, QueryOpts{From: time.Date(2026, 3, 1, 9, 0, 2, 0, time.UTC)})
	if err != nil {
		t.Fatalf("query window: %v", err)
	}
	if len(windowed) != 2 {
		t.Errorf("time window returned %d events, want 2", len(windowed))
	}

	e, err := repo.GetLLMEvent(ctx, events[1].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if e == nil || e.RequestBody != "[user]\nhello" || e.ResponseBody != `{"questions":[]}` {
		t.Errorf("get = %+v", e)
	}

	missing, err := repo.GetLLMEvent(ctx, 9999)
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown id")
	}
}

func TestEvents_LLMUsage(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	rows := []LLMRequestEventData{
		{Model: "gpt-4o-mini", Purpose: "question-gen", InputTokens: 100, OutputTokens: 50, LatencyMs: 100, Success: true},
		{Model: "gpt-4o-mini", Purpose: "question-gen", InputTokens: 200, OutputTokens: 50, LatencyMs: 300, Success: true},
		{Model: "claude-haiku-4-5", Purpose: "preview", InputTokens: 10, OutputTokens: 5, LatencyMs: 50, Success: true},
	}
	for _, r := range rows {
		if err := repo.AppendLLMRequest(ctx, r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("by purpose: %v", err)
	}
	if len(byPurpose) != 2 {
		t.Fatalf("purposes = %d, want 2", len(byPurpose))
	}
	// Ordered by purpose: preview, question-gen.
	qg := byPurpose[1]
	if qg.Purpose != "question-gen" || qg.Calls != 2 || qg.InputTokens != 300 || qg.OutputTokens != 100 || qg.AvgLatencyMs != 200 {
		t.Errorf("question-gen usage = %+v", qg)
	}

	byModel, err := repo.LLMUsageByModel(ctx)
	if err != nil {
		t.Fatalf("by model: %v", err)
	}
	if len(byModel) != 2 || byModel[1].Model != "gpt-4o-mini" || byModel[1].Calls != 2 {
		t.Errorf("model usage = %+v", byModel)
	}
}

func TestEvents_Generations(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	data := []GenerationEventData{
		{UserID: "ada", Topic: "Rome", Outcome: "ok", QuestionCount: 5, LatencyMs: 900},
		{UserID: "ada", Topic: "Rome", Outcome: "schema_violation", Detail: "options: minItems 4"},
		{UserID: "bob", Topic: "Go", Outcome: "rate_limited"},
	}
	for _, d := range data {
		if err := repo.AppendGeneration(ctx, d); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	all, err := repo.QueryGenerations(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 3 || all[0].UserID != "bob" {
		t.Fatalf("all = %+v", all)
	}

	ada, err := repo.QueryGenerations(ctx, QueryOpts{UserID: "ada", Outcome: "schema_violation"})
	if err != nil {
		t.Fatalf("query ada: %v", err)
	}
	if len(ada) != 1 || ada[0].Detail != "options: minItems 4" {
		t.Errorf("filtered = %+v", ada)
	}
}
