package domain

import (
	"context"
	"fmt"
)

type Engine int

const (
	EngineMySQL Engine = iota + 1
	EnginePostgreSQL
)

func ParseEngine(s string) (Engine, error) {
	switch s {
	case "mysql":
		return EngineMySQL, nil
	case "postgresql":
		return EnginePostgreSQL, nil
	}
	return 0, fmt.Errorf("unknown database engine %q", s)
}

func (e Engine) String() string {
	switch e {
	case EngineMySQL:
		return "mysql"
	case EnginePostgreSQL:
		return "postgresql"
	}
	return fmt.Sprintf("engine(%d)", int(e))
}

// FilePrefix is the dump file name prefix for the engine.
func (e Engine) FilePrefix() string {
	switch e {
	case EngineMySQL:
		return "mysql"
	case EnginePostgreSQL:
		return "pgsql"
	}
	return "unknown"
}

// Dumper produces a plain SQL dump of one database.
type Dumper interface {
	Dump(ctx context.Context, server ServerProfile, database, outputPath string) error
	Ping(ctx context.Context, server ServerProfile, database string) error
}
