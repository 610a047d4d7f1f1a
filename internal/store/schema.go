package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table and column names shared by the repositories.
const (
	tableProgress    = "user_progress"
	tableRatings     = "question_ratings"
	tableShares      = "shared_quizzes"
	tableSessions    = "user_sessions"
	tableLLMEvents   = "llm_request_events"
	tableGenerations = "generation_events"
)

var (
	progressColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "user_id", Type: field.TypeString, Unique: true},
		{Name: "total_questions", Type: field.TypeInt, Default: 0},
		{Name: "last_active", Type: field.TypeTime},
	}
	progressTable = &schema.Table{
		Name:       tableProgress,
		Columns:    progressColumns,
		PrimaryKey: []*schema.Column{progressColumns[0]},
		Indexes: []*schema.Index{
			{Name: "userprogress_total_questions", Columns: []*schema.Column{progressColumns[2]}},
		},
	}

	ratingColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "question_id", Type: field.TypeString, Unique: true},
		{Name: "question_text", Type: field.TypeString, Size: 2147483647},
		{Name: "topic", Type: field.TypeString},
		{Name: "upvotes", Type: field.TypeInt, Default: 0},
		{Name: "downvotes", Type: field.TypeInt, Default: 0},
		{Name: "updated_at", Type: field.TypeTime},
	}
	ratingTable = &schema.Table{
		Name:       tableRatings,
		Columns:    ratingColumns,
		PrimaryKey: []*schema.Column{ratingColumns[0]},
	}

	shareColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "share_code", Type: field.TypeString, Unique: true},
		{Name: "created_by", Type: field.TypeString},
		{Name: "topic", Type: field.TypeString},
		{Name: "questions", Type: field.TypeJSON},
		{Name: "created_at", Type: field.TypeTime},
	}
	shareTable = &schema.Table{
		Name:       tableShares,
		Columns:    shareColumns,
		PrimaryKey: []*schema.Column{shareColumns[0]},
	}

	sessionColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "user_id", Type: field.TypeString, Unique: true},
		{Name: "refreshed_at", Type: field.TypeTime},
	}
	sessionTable = &schema.Table{
		Name:       tableSessions,
		Columns:    sessionColumns,
		PrimaryKey: []*schema.Column{sessionColumns[0]},
	}

	llmEventColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt},
		{Name: "output_tokens", Type: field.TypeInt},
		{Name: "latency_ms", Type: field.TypeInt64},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Default: ""},
		{Name: "request_body", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "response_body", Type: field.TypeString, Size: 2147483647, Default: ""},
	}
	llmEventTable = &schema.Table{
		Name:       tableLLMEvents,
		Columns:    llmEventColumns,
		PrimaryKey: []*schema.Column{llmEventColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llmrequestevent_timestamp", Columns: []*schema.Column{llmEventColumns[1]}},
		},
	}

	generationColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "user_id", Type: field.TypeString},
		{Name: "topic", Type: field.TypeString},
		{Name: "outcome", Type: field.TypeString},
		{Name: "detail", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "question_count", Type: field.TypeInt},
		{Name: "latency_ms", Type: field.TypeInt64},
	}
	generationTable = &schema.Table{
		Name:       tableGenerations,
		Columns:    generationColumns,
		PrimaryKey: []*schema.Column{generationColumns[0]},
		Indexes: []*schema.Index{
			{Name: "generationevent_user_id", Columns: []*schema.Column{generationColumns[2]}},
		},
	}

	// tables lists every table the store migrates on Open.
	tables = []*schema.Table{
		progressTable,
		ratingTable,
		shareTable,
		sessionTable,
		llmEventTable,
		generationTable,
	}
)
