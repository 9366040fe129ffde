package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/semmidev/sqlbackup/internal/domain"
)

type Notifier interface {
	Notify(ctx context.Context, message string) error
}

type Report struct {
	Outcomes []domain.BackupOutcome
	Started  time.Time
	Finished time.Time
}

func NewReport(outcomes []domain.BackupOutcome, started, finished time.Time) Report {
	return Report{Outcomes: outcomes, Started: started, Finished: finished}
}

func (r Report) Count(status domain.Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

func (r Report) Failures() []domain.BackupOutcome {
	var failed []domain.BackupOutcome
	for _, o := range r.Outcomes {
		if o.Status.Failed() || o.Status == domain.StatusSkippedBadFrequency {
			failed = append(failed, o)
		}
	}
	return failed
}

func (r Report) HasFailures() bool {
	return len(r.Failures()) > 0
}

// Summary renders the report as a short plain-text message.
func (r Report) Summary(name string) string {
	var b strings.Builder

	icon := "✅"
	if r.HasFailures() {
		icon = "❌"
	}
	fmt.Fprintf(&b, "%s %s backup run\n", icon, name)
	fmt.Fprintf(&b, "🕐 %s (%s)\n", r.Started.Format("2006-01-02 15:04"), r.Finished.Sub(r.Started).Round(time.Second))
	fmt.Fprintf(&b, "succeeded: %d, skipped: %d, failed: %d\n",
		r.Count(domain.StatusSucceeded),
		r.Count(domain.StatusSkippedSchedule),
		len(r.Failures()))

	for _, o := range r.Failures() {
		fmt.Fprintf(&b, "- %s[%s] %s", o.Server, o.Database, o.Status)
		if o.Err != nil {
			fmt.Fprintf(&b, ": %v", o.Err)
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

// LogReport writes one line per outcome plus a totals line.
func LogReport(logger Logger, r Report) {
	for _, o := range r.Outcomes {
		fields := []interface{}{"server", o.Server, "database", o.Database, "status", o.Status.String()}
		if o.File != "" {
			fields = append(fields, "file", o.File)
		}
		if o.Err != nil {
			logger.Warnw("Backup outcome", append(fields, "error", o.Err)...)
			continue
		}
		logger.Infow("Backup outcome", fields...)
	}

	logger.Infow("Backup summary",
		"succeeded", r.Count(domain.StatusSucceeded),
		"skipped_schedule", r.Count(domain.StatusSkippedSchedule),
		"skipped_bad_frequency", r.Count(domain.StatusSkippedBadFrequency),
		"failed_dump", r.Count(domain.StatusFailedDump),
		"failed_compress", r.Count(domain.StatusFailedCompress),
		"failed_verify", r.Count(domain.StatusFailedVerify))
}
