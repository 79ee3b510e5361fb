// Package usage wraps every generation-service call with before/after
// timing and an asynchronous, failure-swallowed Usage Log write (spec.md
// §4.5), and aggregates those logs into the per-action/per-model/per-file
// reports §4.5 also asks for (report.go).
package usage

import (
	"context"
	"log/slog"
	"time"

	"github.com/lynxscreen/screenpipe/internal/domain"
	"github.com/lynxscreen/screenpipe/internal/genservice"
	"github.com/lynxscreen/screenpipe/internal/store"
	"github.com/lynxscreen/screenpipe/pkg/safe"
)

// Track calls fn, timing it, and asynchronously appends a Usage Log row
// carrying fn's reported token usage and the elapsed latency. Write
// failures are swallowed — per §4.5/§7, usage accounting must never fail
// the primary call. fileID may be empty for project-scoped (not
// file-scoped) calls, e.g. JD keyword extraction.
func Track[T any](ctx context.Context, logs store.UsageLogStore, projectID, fileID, model string, action domain.ActionType, fn func() (T, genservice.Usage, error)) (T, error) {
	start := time.Now()
	result, u, err := fn()
	latency := time.Since(start)

	safe.Go(func() {
		logErr := logs.Append(context.Background(), &domain.UsageLog{
			ProjectID:        projectID,
			FileID:           fileID,
			Timestamp:        start,
			ModelID:          model,
			ActionType:       action,
			PromptTokens:     u.PromptTokens,
			CompletionTokens: u.CompletionTokens,
			TotalTokens:      u.TotalTokens,
			LatencyMillis:    latency.Milliseconds(),
		})
		if logErr != nil {
			slog.Warn("usage: failed to append usage log", "project_id", projectID, "file_id", fileID, "error", logErr)
		}
	})

	return result, err
}
