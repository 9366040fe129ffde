package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/semmidev/sqlbackup/internal/domain"
)

const envMySQLPassword = "MYSQL_PWD"

type MySQLDatabase struct {
	exe    string
	runner CommandRunner
}

func NewMySQL(exe string, runner CommandRunner) *MySQLDatabase {
	return &MySQLDatabase{exe: exe, runner: runner}
}

func (m *MySQLDatabase) Args(server domain.ServerProfile, database, outputPath string) []string {
	return []string{
		"--opt",
		"--single-transaction",
		"-u", server.User,
		"-h", server.Hostname,
		fmt.Sprintf("--port=%d", server.Port),
		"--result-file", outputPath,
		database,
	}
}

func (m *MySQLDatabase) Dump(ctx context.Context, server domain.ServerProfile, database, outputPath string) error {
	env := []string{envMySQLPassword + "=" + server.Password}
	if _, err := m.runner.Run(ctx, env, m.exe, m.Args(server, database, outputPath)...); err != nil {
		return fmt.Errorf("mysqldump %s: %w", database, err)
	}
	return nil
}

func (m *MySQLDatabase) Ping(ctx context.Context, server domain.ServerProfile, database string) error {
	cfg := mysql.NewConfig()
	cfg.User = server.User
	cfg.Passwd = server.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(server.Hostname, strconv.Itoa(server.Port))
	cfg.DBName = database

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return fmt.Errorf("mysql connector: %w", err)
	}

	db := sql.OpenDB(connector)
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("mysql ping failed: %w", err)
	}

	return nil
}
