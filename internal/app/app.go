package app

import (
	"context"
	"fmt"
	"time"

	"github.com/semmidev/sqlbackup/internal/adapter/compressor"
	"github.com/semmidev/sqlbackup/internal/adapter/database"
	"github.com/semmidev/sqlbackup/internal/adapter/notifier"
	"github.com/semmidev/sqlbackup/internal/adapter/storage"
	"github.com/semmidev/sqlbackup/internal/config"
	"github.com/semmidev/sqlbackup/internal/domain"
	"github.com/semmidev/sqlbackup/internal/infrastructure/logger"
	"github.com/semmidev/sqlbackup/internal/infrastructure/process"
	"github.com/semmidev/sqlbackup/internal/infrastructure/scheduler"
	"github.com/semmidev/sqlbackup/internal/usecase"
)

type App struct {
	config    *config.Config
	logger    *logger.Logger
	scheduler *scheduler.Scheduler
	servers   []domain.ServerProfile
	backupUC  *usecase.Backup
	notifier  usecase.Notifier
}

func New(cfg *config.Config) (*App, error) {
	log, err := logger.New(logger.Options{
		Level:      cfg.App.LogLevel,
		File:       cfg.App.LogFile,
		Mode:       cfg.App.LogMode,
		MaxSizeMB:  cfg.App.LogMaxSizeMB,
		MaxBackups: cfg.App.LogMaxBackups,
		MaxAgeDays: cfg.App.LogMaxAgeDays,
		Compress:   cfg.App.LogCompress,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	schedule, err := buildSchedule(cfg)
	if err != nil {
		return nil, err
	}

	servers, err := buildServers(cfg)
	if err != nil {
		return nil, err
	}

	localStorage, err := storage.NewLocal(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize local storage: %w", err)
	}

	mode, err := process.ParseFailureMode(cfg.App.FailureMode)
	if err != nil {
		return nil, err
	}
	runner := process.NewRunner(mode, log)

	dumpers := make(map[domain.Engine]domain.Dumper)
	for _, engine := range []domain.Engine{domain.EngineMySQL, domain.EnginePostgreSQL} {
		d, err := database.New(engine, schedule.Tools, runner)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize %s dumper: %w", engine, err)
		}
		dumpers[engine] = d
	}

	comp := compressor.New(schedule.Codec, schedule.Tools, runner)

	log.Infof("Starting %s", cfg.App.Name)
	log.Infof("Found %d server(s) configured, data dir %s, compression %s",
		len(servers), localStorage.BasePath(), schedule.Codec)

	backupUC := usecase.NewBackup(
		schedule,
		dumpers,
		comp,
		localStorage,
		log,
		usecase.WithWorkers(cfg.App.Workers),
		usecase.WithPreflight(cfg.App.Preflight),
	)

	return &App{
		config:    cfg,
		logger:    log,
		scheduler: scheduler.New(log),
		servers:   servers,
		backupUC:  backupUC,
		notifier:  initializeNotifier(cfg, log),
	}, nil
}

func initializeNotifier(cfg *config.Config, log *logger.Logger) usecase.Notifier {
	if !cfg.Notify.Telegram.Enabled {
		return nil
	}

	n, err := notifier.NewTelegram(&cfg.Notify.Telegram)
	if err != nil {
		log.Errorf("Failed to initialize Telegram: %v", err)
		return nil
	}
	log.Infof("✓ Telegram notifications enabled")
	return n
}

func buildSchedule(cfg *config.Config) (domain.RunSchedule, error) {
	weekday, err := domain.ParseWeekday(cfg.DayOfWeek)
	if err != nil {
		return domain.RunSchedule{}, err
	}

	codec, err := domain.ParseCodec(cfg.CompressionType)
	if err != nil {
		return domain.RunSchedule{}, err
	}

	return domain.RunSchedule{
		DayOfWeek:          weekday,
		DayOfMonth:         cfg.DayOfMonth,
		DataDir:            cfg.DataDir,
		UseTimestampSuffix: cfg.Timestamps,
		Codec:              codec,
		Tools: domain.Tools{
			MySQLDump: cfg.MySQLDumpExe,
			PgDump:    cfg.PgDumpExe,
			Bzip2:     cfg.Bzip2Exe,
			Gzip:      cfg.GzipExe,
			P7zip:     cfg.P7zipExe,
		},
	}, nil
}

func buildServers(cfg *config.Config) ([]domain.ServerProfile, error) {
	var servers []domain.ServerProfile

	for _, named := range cfg.Servers() {
		srv := named.Server
		engine, err := domain.ParseEngine(srv.DBType)
		if err != nil {
			return nil, fmt.Errorf("db_servers.%s: %w", named.Key, err)
		}

		policies := make([]domain.DatabasePolicy, 0, len(srv.Databases))
		for _, db := range srv.Databases {
			policies = append(policies, domain.DatabasePolicy{
				Name:      db.DBName,
				Frequency: domain.Frequency(db.Frequency),
				Compress:  db.Compress != nil && *db.Compress,
				Verify:    db.Verify != nil && *db.Verify,
			})
		}

		servers = append(servers, domain.ServerProfile{
			Key:       named.Key,
			User:      srv.User,
			Password:  srv.Password,
			Hostname:  srv.Hostname,
			Port:      srv.Port,
			Engine:    engine,
			Databases: policies,
		})
	}

	return servers, nil
}

// RunOnce performs a single backup run and reports its outcomes.
func (a *App) RunOnce(ctx context.Context) usecase.Report {
	started := time.Now()
	outcomes := a.backupUC.Run(ctx, a.servers)
	report := usecase.NewReport(outcomes, started, time.Now())

	usecase.LogReport(a.logger, report)
	a.notify(ctx, report)

	return report
}

func (a *App) notify(ctx context.Context, report usecase.Report) {
	if a.notifier == nil {
		return
	}
	if a.config.Notify.Telegram.OnlyOnFailure && !report.HasFailures() {
		return
	}
	if err := a.notifier.Notify(ctx, report.Summary(a.config.App.Name)); err != nil {
		a.logger.Errorf("Failed to send run summary: %v", err)
	}
}

// Plan lists which databases are due today.
func (a *App) Plan() []usecase.PlannedBackup {
	return a.backupUC.Plan(a.servers)
}

// Plan evaluates the schedule gate straight from cfg. Nothing is created on
// disk and no notifier is contacted.
func Plan(cfg *config.Config) ([]usecase.PlannedBackup, error) {
	schedule, err := buildSchedule(cfg)
	if err != nil {
		return nil, err
	}

	servers, err := buildServers(cfg)
	if err != nil {
		return nil, err
	}

	return usecase.NewBackup(schedule, nil, nil, nil, nil).Plan(servers), nil
}

// Run keeps backing up on the configured cron schedule until ctx is done.
func (a *App) Run(ctx context.Context) error {
	schedule := a.config.App.Schedule
	a.logger.Infof("Scheduling backup run: %s", schedule)

	if err := a.scheduler.AddJob(ctx, "backup", schedule, func(ctx context.Context) error {
		a.logger.Infof("=== Triggered scheduled backup run ===")
		report := a.RunOnce(ctx)
		if report.HasFailures() {
			return fmt.Errorf("%d database(s) did not back up", len(report.Failures()))
		}
		return nil
	}); err != nil {
		return fmt.Errorf("failed to schedule backup run: %w", err)
	}

	a.scheduler.Start()
	a.logger.Infof("Scheduler started successfully")

	<-ctx.Done()
	return nil
}

func (a *App) Shutdown() {
	a.logger.Infof("Shutting down application...")
	a.scheduler.Stop()
	a.logger.Close()
}
