package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/semmidev/sqlbackup/internal/domain"
)

const timestampLayout = "20060102-1504"

type LocalStorage interface {
	GetPath(filename string) string
	Size(path string) (int64, error)
}

type Logger interface {
	Debugw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
}

type Option func(*Backup)

// WithWorkers sets how many databases are processed at once.
func WithWorkers(n int) Option {
	return func(uc *Backup) {
		if n > 0 {
			uc.workers = n
		}
	}
}

// WithPreflight checks connectivity before each dump.
func WithPreflight(enabled bool) Option {
	return func(uc *Backup) {
		uc.preflight = enabled
	}
}

func WithClock(now func() time.Time) Option {
	return func(uc *Backup) {
		uc.now = now
	}
}

// Backup runs the dump, compress and verify pipeline for every configured
// database that is due.
type Backup struct {
	schedule     domain.RunSchedule
	dumpers      map[domain.Engine]domain.Dumper
	compressor   domain.Compressor
	localStorage LocalStorage
	logger       Logger
	workers      int
	preflight    bool
	now          func() time.Time
}

func NewBackup(
	schedule domain.RunSchedule,
	dumpers map[domain.Engine]domain.Dumper,
	compressor domain.Compressor,
	localStorage LocalStorage,
	logger Logger,
	opts ...Option,
) *Backup {
	uc := &Backup{
		schedule:     schedule,
		dumpers:      dumpers,
		compressor:   compressor,
		localStorage: localStorage,
		logger:       logger,
		workers:      1,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

type task struct {
	server domain.ServerProfile
	policy domain.DatabasePolicy
}

// Run processes every database of every server and returns one outcome per
// database in configured order. A failing database never stops the run.
func (uc *Backup) Run(ctx context.Context, servers []domain.ServerProfile) []domain.BackupOutcome {
	start := uc.now()

	var tasks []task
	for _, server := range servers {
		for _, policy := range server.Databases {
			tasks = append(tasks, task{server: server, policy: policy})
		}
	}

	uc.logger.Infow("Starting backup run",
		"servers", len(servers), "databases", len(tasks), "workers", uc.workers)

	outcomes := make([]domain.BackupOutcome, len(tasks))
	if uc.workers <= 1 {
		for i, t := range tasks {
			outcomes[i] = uc.process(ctx, t, start)
		}
	} else {
		p := pool.New().WithMaxGoroutines(uc.workers)
		for i, t := range tasks {
			i, t := i, t
			p.Go(func() {
				outcomes[i] = uc.process(ctx, t, start)
			})
		}
		p.Wait()
	}

	uc.logger.Infow("Backup run finished", "duration", uc.now().Sub(start).Round(time.Second))
	return outcomes
}

type PlannedBackup struct {
	Server    string
	Database  string
	Frequency domain.Frequency
	Due       bool
	Err       error
}

// Plan evaluates the schedule gate for every database without touching it.
func (uc *Backup) Plan(servers []domain.ServerProfile) []PlannedBackup {
	today := uc.now()

	var plan []PlannedBackup
	for _, server := range servers {
		for _, policy := range server.Databases {
			due, err := IsDue(policy.Frequency, uc.schedule, today)
			plan = append(plan, PlannedBackup{
				Server:    server.Key,
				Database:  policy.Name,
				Frequency: policy.Frequency,
				Due:       due,
				Err:       err,
			})
		}
	}
	return plan
}

// FilePath is {data_dir}/{prefix}-{database}[-{YYYYMMDD-HHMM}].sql.
func (uc *Backup) FilePath(engine domain.Engine, database string) string {
	name := engine.FilePrefix() + "-" + database
	if uc.schedule.UseTimestampSuffix {
		name += "-" + uc.now().Format(timestampLayout)
	}
	return uc.localStorage.GetPath(name + ".sql")
}

func (uc *Backup) process(ctx context.Context, t task, today time.Time) (outcome domain.BackupOutcome) {
	outcome = domain.BackupOutcome{Server: t.server.Key, Database: t.policy.Name}
	fields := []interface{}{"server", t.server.Key, "database", t.policy.Name}

	due, err := IsDue(t.policy.Frequency, uc.schedule, today)
	if err != nil {
		uc.logger.Errorw("Backup not created, wrong value for parameter frequency",
			append(fields, "frequency", t.policy.Frequency)...)
		outcome.Status, outcome.Err = domain.StatusSkippedBadFrequency, err
		return outcome
	}
	if !due {
		uc.logger.Debugw("Backup not due today", append(fields, "frequency", t.policy.Frequency)...)
		outcome.Status = domain.StatusSkippedSchedule
		return outcome
	}

	step := "dump"
	defer func() {
		if r := recover(); r != nil {
			outcome.Err = fmt.Errorf("panic during %s: %v", step, r)
			outcome.Status = statusForStep(step)
			uc.logger.Errorw("Backup aborted", append(fields, "step", step, "error", outcome.Err)...)
		}
	}()

	path, err := uc.execute(ctx, t, fields, &step)
	outcome.File = path
	outcome.Err = err
	outcome.Status = domain.StatusFromError(err)

	if err != nil {
		uc.logger.Errorw("Backup failed", append(fields, "step", step, "error", err)...)
		return outcome
	}

	uc.logger.Infow("Backup completed", append(fields, "file", path)...)
	return outcome
}

// execute returns the path of the last artifact it produced.
func (uc *Backup) execute(ctx context.Context, t task, fields []interface{}, step *string) (string, error) {
	dumper, ok := uc.dumpers[t.server.Engine]
	if !ok {
		return "", fmt.Errorf("%w: no dumper for engine %s", domain.ErrDump, t.server.Engine)
	}

	if uc.preflight {
		*step = "preflight"
		if err := dumper.Ping(ctx, t.server, t.policy.Name); err != nil {
			return "", fmt.Errorf("%w: %w", domain.ErrDump, err)
		}
	}

	*step = "dump"
	path := uc.FilePath(t.server.Engine, t.policy.Name)
	uc.logger.Infow("Processing database", append(fields, "engine", t.server.Engine.String(), "file", path)...)

	if err := dumper.Dump(ctx, t.server, t.policy.Name, path); err != nil {
		return path, fmt.Errorf("%w: %w", domain.ErrDump, err)
	}
	uc.logSize(fields, path)

	if !t.policy.Compress {
		return path, nil
	}

	*step = "compress"
	uc.logger.Infow("Compressing", append(fields, "file", path, "codec", uc.schedule.Codec.String())...)
	compressed, err := uc.compressor.Compress(ctx, path)
	if err != nil {
		return path, fmt.Errorf("%w: %w", domain.ErrCompress, err)
	}
	uc.logSize(fields, compressed)

	if !t.policy.Verify {
		return compressed, nil
	}

	*step = "verify"
	uc.logger.Infow("Verifying", append(fields, "file", compressed)...)
	if err := uc.compressor.Verify(ctx, compressed); err != nil {
		return compressed, fmt.Errorf("%w: %w", domain.ErrVerify, err)
	}

	return compressed, nil
}

func (uc *Backup) logSize(fields []interface{}, path string) {
	size, err := uc.localStorage.Size(path)
	if err != nil {
		uc.logger.Warnw("Could not stat artifact", append(fields, "file", path, "error", err)...)
		return
	}
	uc.logger.Infow("Artifact written",
		append(fields, "file", path, "size_mb", fmt.Sprintf("%.2f", float64(size)/(1024*1024)))...)
}

func statusForStep(step string) domain.Status {
	switch step {
	case "compress":
		return domain.StatusFailedCompress
	case "verify":
		return domain.StatusFailedVerify
	}
	return domain.StatusFailedDump
}
