package config

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

const validYAML = `
day_of_week: friday
day_of_month: 15
data_dir: /var/backups/sql
timestamps: false
compression_type: bz2
db_servers:
  zeta:
    user: root
    password: s3cret
    port: 3306
    db_type: mysql
    databases:
      - db_name: shop
  alpha:
    user: postgres
    password: pw
    hostname: pg.internal
    port: 5432
    db_type: postgresql
    databases:
      - db_name: ledger
        frequency: weekly
        compress: false
        verify: false
      - db_name: audit
        frequency: hourly
`

func writeConfig(dir, name, content string) string {
	path := filepath.Join(dir, name)
	So(os.WriteFile(path, []byte(content), 0644), ShouldBeNil)
	return path
}

func TestLoad(t *testing.T) {
	Convey("Given the config loader", t, func() {
		tempDir, err := os.MkdirTemp("", "config_test")
		So(err, ShouldBeNil)
		defer os.RemoveAll(tempDir)

		Convey("When loading a valid YAML file", func() {
			cfg, err := Load(writeConfig(tempDir, "config.yaml", validYAML))
			So(err, ShouldBeNil)

			Convey("Explicit values are read", func() {
				So(cfg.DayOfWeek, ShouldEqual, "friday")
				So(cfg.DayOfMonth, ShouldEqual, 15)
				So(cfg.DataDir, ShouldEqual, "/var/backups/sql")
				So(cfg.Timestamps, ShouldBeFalse)
				So(cfg.CompressionType, ShouldEqual, "bz2")
			})

			Convey("Defaults are applied", func() {
				So(cfg.App.Name, ShouldEqual, "sqlbackup")
				So(cfg.App.LogLevel, ShouldEqual, "info")
				So(cfg.App.LogMode, ShouldEqual, "append")
				So(cfg.App.LogMaxSizeMB, ShouldEqual, 0)
				So(cfg.App.LogMaxBackups, ShouldEqual, 3)
				So(cfg.App.LogMaxAgeDays, ShouldEqual, 28)
				So(cfg.App.LogCompress, ShouldBeTrue)
				So(cfg.App.Workers, ShouldEqual, 1)
				So(cfg.App.FailureMode, ShouldEqual, "stderr")
				So(cfg.MySQLDumpExe, ShouldEqual, "/usr/bin/mysqldump")
				So(cfg.P7zipExe, ShouldEqual, "/usr/bin/7z")

				shop := cfg.DBServers["zeta"].Databases[0]
				So(cfg.DBServers["zeta"].Hostname, ShouldEqual, "localhost")
				So(shop.Frequency, ShouldEqual, "daily")
				So(*shop.Compress, ShouldBeTrue)
				So(*shop.Verify, ShouldBeTrue)
			})

			Convey("Explicit false flags survive defaulting", func() {
				ledger := cfg.DBServers["alpha"].Databases[0]
				So(*ledger.Compress, ShouldBeFalse)
				So(*ledger.Verify, ShouldBeFalse)
			})

			Convey("Unknown frequencies are passed through", func() {
				So(cfg.DBServers["alpha"].Databases[1].Frequency, ShouldEqual, "hourly")
			})

			Convey("Servers are ordered by key", func() {
				servers := cfg.Servers()
				So(servers, ShouldHaveLength, 2)
				So(servers[0].Key, ShouldEqual, "alpha")
				So(servers[1].Key, ShouldEqual, "zeta")
			})
		})

		Convey("When loading a JSON file", func() {
			json := `{"data_dir": "/tmp", "db_servers": {"main": {"user": "u", "password": "p", "port": 3306, "db_type": "mysql", "databases": [{"db_name": "test_db"}]}}}`
			cfg, err := Load(writeConfig(tempDir, "config.json", json))

			So(err, ShouldBeNil)
			So(cfg.DataDir, ShouldEqual, "/tmp")
			So(cfg.DayOfWeek, ShouldEqual, "sunday")
			So(cfg.DayOfMonth, ShouldEqual, 1)
			So(cfg.Timestamps, ShouldBeTrue)
		})

		Convey("When the file does not exist", func() {
			_, err := Load(filepath.Join(tempDir, "missing.yaml"))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "failed to read config")
		})

		Convey("When values are invalid", func() {
			cases := map[string]string{
				"bad day of week": "day_of_week: someday\ndb_servers: {s: {user: u, port: 1, db_type: mysql}}",
				"day of month":    "day_of_month: 32\ndb_servers: {s: {user: u, port: 1, db_type: mysql}}",
				"port":            "db_servers: {s: {user: u, port: 70000, db_type: mysql}}",
				"db type":         "db_servers: {s: {user: u, port: 1, db_type: oracle}}",
				"compression":     "compression_type: zip\ndb_servers: {s: {user: u, port: 1, db_type: mysql}}",
				"no servers":      "data_dir: /tmp",
				"db name":         "db_servers: {s: {user: u, port: 1, db_type: mysql, databases: [{frequency: daily}]}}",
				"log mode":        "app: {log_mode: rotate}\ndb_servers: {s: {user: u, port: 1, db_type: mysql}}",
				"log rotation":    "app: {log_max_backups: -1}\ndb_servers: {s: {user: u, port: 1, db_type: mysql}}",
			}

			for name, content := range cases {
				Convey("It rejects "+name, func() {
					_, err := Load(writeConfig(tempDir, "invalid.yaml", content))
					So(err, ShouldNotBeNil)
					So(err.Error(), ShouldContainSubstring, "invalid config")
				})
			}
		})
	})
}
