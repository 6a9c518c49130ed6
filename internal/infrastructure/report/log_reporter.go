package report

import (
	"context"
	"log/slog"

	"prospector/internal/domain"
	"prospector/internal/ports"
)

// LogReporter writes the run outcome to the structured log. Richer export
// formats live behind the same port.
type LogReporter struct {
	logger *slog.Logger
}

var _ ports.Reporter = (*LogReporter)(nil)

// NewLogReporter wires the reporter.
func NewLogReporter(logger *slog.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

// Report logs run metadata and one line per prospect, best first.
func (r *LogReporter) Report(_ context.Context, prospects []domain.Prospect, summary domain.RunSummary) error {
	if r.logger == nil {
		return nil
	}

	r.logger.Info("run finished",
		"search_date", summary.SearchDate.Format("2006-01-02"),
		"total_found", summary.TotalFound,
		"total_scored", summary.TotalScored,
		"average_score", summary.AverageScore,
		"high_priority", summary.HighPriorityCount,
		"elapsed_ms", summary.ElapsedMs,
	)

	for _, p := range prospects {
		r.logger.Info("prospect",
			"score", p.TotalScore,
			"priority", p.Priority,
			"title", p.Article.Title,
			"url", p.Article.URL,
			"author", p.Author.Name,
			"contact", p.Author.BestContactMethod(),
		)
	}
	return nil
}
