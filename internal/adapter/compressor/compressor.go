package compressor

import (
	"context"

	"github.com/semmidev/sqlbackup/internal/domain"
	"github.com/semmidev/sqlbackup/internal/infrastructure/process"
)

type CommandRunner interface {
	Run(ctx context.Context, env []string, name string, args ...string) (process.Result, error)
}

// New returns the compressor for codec. A GZ codec without a configured
// gzip executable compresses in-process.
func New(codec domain.Codec, tools domain.Tools, runner CommandRunner) domain.Compressor {
	switch codec {
	case domain.CodecBZ2:
		return NewBzip2(tools.Bzip2, runner)
	case domain.CodecGZ:
		if tools.Gzip == "" {
			return NewGzip()
		}
		return NewGzipExe(tools.Gzip, runner)
	default:
		return NewP7zip(tools.P7zip, runner)
	}
}
