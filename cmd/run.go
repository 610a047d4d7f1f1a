package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/abhisek/quizzler/internal/app"
	"github.com/abhisek/quizzler/internal/config"
	"github.com/abhisek/quizzler/internal/llm"
	"github.com/abhisek/quizzler/internal/metrics"
	"github.com/abhisek/quizzler/internal/quiz"
	"github.com/abhisek/quizzler/internal/ratelimit"
	"github.com/abhisek/quizzler/internal/screen"
	"github.com/abhisek/quizzler/internal/session"
	"github.com/abhisek/quizzler/internal/store"
)

// runApp opens the store, builds dependencies, and launches the TUI.
func runApp(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, cfg, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
		cfg.MetricsAddr = addr
	}
	if cfg.MetricsAddr != "" {
		stop, err := serveMetrics(cfg.MetricsAddr)
		if err != nil {
			return err
		}
		defer stop()
	}

	user, _ := cmd.Flags().GetString("user")
	svc := screen.Services{
		Progress: st.ProgressRepo(),
		Ratings:  st.RatingRepo(),
		Shares:   st.ShareRepo(),
		UserID:   user,
	}
	if user != "" {
		if err := st.SessionRepo().Touch(ctx, user); err != nil {
			fmt.Fprintln(os.Stderr, "Could not start a session:", err)
			fmt.Fprintln(os.Stderr, "Continuing as guest; progress will not be saved.")
			user = ""
		}
	}
	if user == "" {
		// Guests still need a distinct limiter bucket.
		svc.UserID = "guest-" + uuid.NewString()
		svc.Guest = true
		svc.Allowance = session.NewAllowance(session.GuestQuestionLimit)
	}

	gen, closeGen, err := buildGenerator(ctx, cfg, st.EventRepo())
	if err != nil {
		return err
	}
	defer closeGen()
	svc.Generator = gen

	return app.Run(svc)
}

// buildGenerator wires the limiter, the provider and the retry policy into
// a question generator. The returned func releases the limiter backend.
func buildGenerator(ctx context.Context, cfg config.Config, events store.EventRepo) (quiz.Generator, func(), error) {
	if err := cfg.LLM.Validate(); err != nil {
		return nil, nil, fmt.Errorf("LLM provider not configured: %w", err)
	}

	limiter, err := ratelimit.New(ctx, cfg.Limiter)
	if err != nil {
		return nil, nil, fmt.Errorf("rate limiter: %w", err)
	}
	closeLimiter := func() {
		if c, ok := limiter.(io.Closer); ok {
			_ = c.Close()
		}
	}

	provider, err := llm.NewProvider(ctx, cfg.LLM, events)
	if err != nil {
		closeLimiter()
		return nil, nil, fmt.Errorf("LLM provider: %w", err)
	}

	var opts []quiz.Option
	if events != nil {
		opts = append(opts, quiz.WithGenerationLog(events))
	}
	gen := quiz.WithRetry(quiz.New(provider, limiter, cfg.Quiz, opts...), cfg.Quiz.Retry)
	return gen, closeLimiter, nil
}

// serveMetrics exposes the Prometheus collectors on addr until the returned
// func is called.
func serveMetrics(addr string) (func(), error) {
	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintln(os.Stderr, "metrics server:", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
