package process_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/semmidev/sqlbackup/internal/domain"
	"github.com/semmidev/sqlbackup/internal/infrastructure/process"
	. "github.com/smartystreets/goconvey/convey"
)

func writeScript(dir, name, body string) string {
	path := filepath.Join(dir, name)
	So(os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755), ShouldBeNil)
	return path
}

func TestRunner(t *testing.T) {
	Convey("Given a Runner", t, func() {
		tempDir, err := os.MkdirTemp("", "runner_test")
		So(err, ShouldBeNil)
		defer os.RemoveAll(tempDir)

		ctx := context.Background()

		Convey("ParseFailureMode", func() {
			mode, err := process.ParseFailureMode("")
			So(err, ShouldBeNil)
			So(mode, ShouldEqual, process.FailOnStderr)

			mode, err = process.ParseFailureMode("exit_code")
			So(err, ShouldBeNil)
			So(mode, ShouldEqual, process.FailOnExitCode)

			_, err = process.ParseFailureMode("whatever")
			So(err, ShouldNotBeNil)
		})

		Convey("In stderr mode", func() {
			runner := process.NewRunner(process.FailOnStderr, nil)

			Convey("A quiet tool succeeds", func() {
				tool := writeScript(tempDir, "ok.sh", "echo hello")
				res, err := runner.Run(ctx, nil, tool)
				So(err, ShouldBeNil)
				So(res.Stdout, ShouldEqual, "hello\n")
			})

			Convey("Stderr output fails even with exit code 0", func() {
				tool := writeScript(tempDir, "warn.sh", "echo 'warning: something' >&2\nexit 0")
				_, err := runner.Run(ctx, nil, tool)
				So(err, ShouldNotBeNil)

				var toolErr *domain.ToolError
				So(errors.As(err, &toolErr), ShouldBeTrue)
				So(toolErr.Stderr, ShouldEqual, "warning: something")
				So(toolErr.ExitCode, ShouldEqual, 0)
			})

			Convey("Whitespace-only stderr output still fails", func() {
				tool := writeScript(tempDir, "newline.sh", "printf '\\n' >&2\nexit 0")
				_, err := runner.Run(ctx, nil, tool)
				So(err, ShouldNotBeNil)

				var toolErr *domain.ToolError
				So(errors.As(err, &toolErr), ShouldBeTrue)
				So(toolErr.Stderr, ShouldEqual, `"\n"`)
				So(toolErr.ExitCode, ShouldEqual, 0)
			})

			Convey("A silent non-zero exit is not a failure", func() {
				tool := writeScript(tempDir, "silent.sh", "exit 3")
				res, err := runner.Run(ctx, nil, tool)
				So(err, ShouldBeNil)
				So(res.ExitCode, ShouldEqual, 3)
			})

			Convey("A missing executable fails", func() {
				_, err := runner.Run(ctx, nil, filepath.Join(tempDir, "missing"))
				So(err, ShouldNotBeNil)
			})
		})

		Convey("In exit_code mode", func() {
			runner := process.NewRunner(process.FailOnExitCode, nil)

			Convey("Stderr output alone is diagnostic only", func() {
				tool := writeScript(tempDir, "warn.sh", "echo 'warning' >&2\nexit 0")
				res, err := runner.Run(ctx, nil, tool)
				So(err, ShouldBeNil)
				So(res.Stderr, ShouldEqual, "warning")
			})

			Convey("A non-zero exit fails", func() {
				tool := writeScript(tempDir, "fail.sh", "exit 2")
				_, err := runner.Run(ctx, nil, tool)
				So(err, ShouldNotBeNil)

				var toolErr *domain.ToolError
				So(errors.As(err, &toolErr), ShouldBeTrue)
				So(toolErr.ExitCode, ShouldEqual, 2)
			})
		})

		Convey("Environment overrides", func() {
			runner := process.NewRunner(process.FailOnStderr, nil)
			os.Unsetenv("SQLBACKUP_TEST_SECRET")

			Convey("They reach the child only", func() {
				tool := writeScript(tempDir, "env.sh", `printf '%s' "$SQLBACKUP_TEST_SECRET"`)
				res, err := runner.Run(ctx, []string{"SQLBACKUP_TEST_SECRET=s3cret"}, tool)
				So(err, ShouldBeNil)
				So(res.Stdout, ShouldEqual, "s3cret")

				_, present := os.LookupEnv("SQLBACKUP_TEST_SECRET")
				So(present, ShouldBeFalse)

				res, err = runner.Run(ctx, nil, tool)
				So(err, ShouldBeNil)
				So(res.Stdout, ShouldEqual, "")
			})
		})
	})
}
