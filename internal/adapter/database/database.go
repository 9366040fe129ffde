package database

import (
	"context"
	"fmt"

	"github.com/semmidev/sqlbackup/internal/domain"
	"github.com/semmidev/sqlbackup/internal/infrastructure/process"
)

// CommandRunner runs an external tool with child-only environment overrides.
type CommandRunner interface {
	Run(ctx context.Context, env []string, name string, args ...string) (process.Result, error)
}

// New returns the dumper for the given engine.
func New(engine domain.Engine, tools domain.Tools, runner CommandRunner) (domain.Dumper, error) {
	switch engine {
	case domain.EngineMySQL:
		return NewMySQL(tools.MySQLDump, runner), nil
	case domain.EnginePostgreSQL:
		return NewPostgreSQL(tools.PgDump, runner), nil
	}
	return nil, fmt.Errorf("unsupported database engine: %s", engine)
}
