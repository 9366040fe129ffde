package database

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/semmidev/sqlbackup/internal/domain"
)

const envPgPassword = "PGPASSWORD"

type PostgreSQLDatabase struct {
	exe    string
	runner CommandRunner
}

func NewPostgreSQL(exe string, runner CommandRunner) *PostgreSQLDatabase {
	return &PostgreSQLDatabase{exe: exe, runner: runner}
}

func (p *PostgreSQLDatabase) Args(server domain.ServerProfile, database, outputPath string) []string {
	return []string{
		"-h", server.Hostname,
		"-p", fmt.Sprintf("%d", server.Port),
		"-U", server.User,
		"-Fp", "-b", "-O",
		"-E", "UTF8",
		"-x",
		fmt.Sprintf("--file=%s", outputPath),
		database,
	}
}

func (p *PostgreSQLDatabase) Dump(ctx context.Context, server domain.ServerProfile, database, outputPath string) error {
	env := []string{envPgPassword + "=" + server.Password}
	if _, err := p.runner.Run(ctx, env, p.exe, p.Args(server, database, outputPath)...); err != nil {
		return fmt.Errorf("pg_dump %s: %w", database, err)
	}
	return nil
}

func (p *PostgreSQLDatabase) Ping(ctx context.Context, server domain.ServerProfile, database string) error {
	cfg, err := connConfig(server, database)
	if err != nil {
		return err
	}

	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("postgresql ping failed: %w", err)
	}
	defer conn.Close(ctx)

	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("postgresql ping failed: %w", err)
	}

	return nil
}

// connConfig pins every connection attempt, TLS fallbacks included, to the
// profile's host and port. PGHOST and friends never pick the target.
func connConfig(server domain.ServerProfile, database string) (*pgx.ConnConfig, error) {
	if strings.Contains(server.Hostname, ",") {
		return nil, fmt.Errorf("postgresql config: hostname %q lists more than one host", server.Hostname)
	}

	dsn := strings.Join([]string{
		"host=" + quoteConnValue(server.Hostname),
		"port=" + strconv.Itoa(server.Port),
		"user=" + quoteConnValue(server.User),
		"dbname=" + quoteConnValue(database),
	}, " ")

	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgresql config: %w", err)
	}
	cfg.Password = server.Password

	for _, fb := range cfg.Fallbacks {
		if fb.Host != cfg.Host || fb.Port != cfg.Port {
			return nil, fmt.Errorf("postgresql config: fallback %s:%d is not %s:%d", fb.Host, fb.Port, cfg.Host, cfg.Port)
		}
	}

	return cfg, nil
}

func quoteConnValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
