package compressor

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

// GzipCompressor is the in-process GZ codec. It leaves <file>.gz in place of
// the input, like gzip -9 does.
type GzipCompressor struct{}

func NewGzip() *GzipCompressor {
	return &GzipCompressor{}
}

func (g *GzipCompressor) Compress(ctx context.Context, filePath string) (string, error) {
	destPath := filePath + ".gz"
	if err := g.compressTo(filePath, destPath); err != nil {
		os.Remove(destPath)
		return "", err
	}

	if err := os.Remove(filePath); err != nil {
		return "", fmt.Errorf("failed to remove source file: %w", err)
	}

	return destPath, nil
}

func (g *GzipCompressor) compressTo(sourcePath, destPath string) error {
	sourceFile, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer sourceFile.Close()

	destFile, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create dest file: %w", err)
	}
	defer destFile.Close()

	gzipWriter, err := gzip.NewWriterLevel(destFile, gzip.BestCompression)
	if err != nil {
		return fmt.Errorf("failed to create gzip writer: %w", err)
	}

	if _, err := io.Copy(gzipWriter, sourceFile); err != nil {
		return fmt.Errorf("failed to compress: %w", err)
	}

	if err := gzipWriter.Close(); err != nil {
		return fmt.Errorf("failed to finish gzip stream: %w", err)
	}

	return destFile.Sync()
}

// Verify reads the whole stream so a truncated archive fails its checksum.
func (g *GzipCompressor) Verify(ctx context.Context, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer file.Close()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	if _, err := io.Copy(io.Discard, gzipReader); err != nil {
		return fmt.Errorf("integrity check %s: %w", filePath, err)
	}

	return nil
}
