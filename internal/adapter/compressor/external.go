package compressor

import (
	"context"
	"fmt"

	"github.com/semmidev/sqlbackup/internal/domain"
)

// ExternalCompressor drives a compressor executable that replaces its input
// with the compressed artifact.
type ExternalCompressor struct {
	codec        domain.Codec
	exe          string
	runner       CommandRunner
	compressArgs func(filePath, target string) []string
	verifyArgs   func(filePath string) []string
}

func NewBzip2(exe string, runner CommandRunner) *ExternalCompressor {
	return &ExternalCompressor{
		codec:        domain.CodecBZ2,
		exe:          exe,
		runner:       runner,
		compressArgs: func(filePath, _ string) []string { return []string{"-9", filePath} },
		verifyArgs:   func(filePath string) []string { return []string{"-t", filePath} },
	}
}

func NewGzipExe(exe string, runner CommandRunner) *ExternalCompressor {
	return &ExternalCompressor{
		codec:        domain.CodecGZ,
		exe:          exe,
		runner:       runner,
		compressArgs: func(filePath, _ string) []string { return []string{"-9", filePath} },
		verifyArgs:   func(filePath string) []string { return []string{"-t", filePath} },
	}
}

// NewP7zip archives with LZMA at maximum level and deletes the source file.
func NewP7zip(exe string, runner CommandRunner) *ExternalCompressor {
	return &ExternalCompressor{
		codec:  domain.CodecP7Z,
		exe:    exe,
		runner: runner,
		compressArgs: func(filePath, target string) []string {
			return []string{
				"a", "-bd", "-t7z", "-m0=lzma", "-mx=9", "-mfb=64", "-md=64m", "-ms=on", "-sdel",
				target, filePath,
			}
		},
		verifyArgs: func(filePath string) []string { return []string{"t", filePath} },
	}
}

func (c *ExternalCompressor) Codec() domain.Codec {
	return c.codec
}

func (c *ExternalCompressor) Compress(ctx context.Context, filePath string) (string, error) {
	target := filePath + "." + c.codec.Extension()
	if _, err := c.runner.Run(ctx, nil, c.exe, c.compressArgs(filePath, target)...); err != nil {
		return "", fmt.Errorf("compress %s: %w", filePath, err)
	}
	return target, nil
}

func (c *ExternalCompressor) Verify(ctx context.Context, filePath string) error {
	if _, err := c.runner.Run(ctx, nil, c.exe, c.verifyArgs(filePath)...); err != nil {
		return fmt.Errorf("integrity check %s: %w", filePath, err)
	}
	return nil
}
