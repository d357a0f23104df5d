package stencil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Exporter converts a saved document to a fixed-layout format and returns
// the path of the converted file.
type Exporter interface {
	Export(ctx context.Context, source, format string) (string, error)
}

// ExportFunc adapts a function to Exporter
type ExportFunc func(ctx context.Context, source, format string) (string, error)

func (f ExportFunc) Export(ctx context.Context, source, format string) (string, error) {
	return f(ctx, source, format)
}

// commandRunner runs an external program and returns its combined output
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// ConverterExporter exports through an office suite running headless, e.g.
// "soffice --headless --convert-to pdf --outdir <dir> <file>". The converted
// file is written next to the source.
type ConverterExporter struct {
	binary   string
	timeout  time.Duration
	run      commandRunner
	lookPath func(string) (string, error)
}

// NewConverterExporter creates an exporter from the export configuration
func NewConverterExporter(cfg ExportConfig) *ConverterExporter {
	binary := cfg.ConverterPath
	if binary == "" {
		binary = DefaultConfig().Export.ConverterPath
	}
	return &ConverterExporter{
		binary:   binary,
		timeout:  cfg.Timeout,
		run:      runCommand,
		lookPath: exec.LookPath,
	}
}

func (x *ConverterExporter) Export(ctx context.Context, source, format string) (string, error) {
	if format == "" {
		return "", errors.New("export format must not be empty")
	}

	bin, err := x.lookPath(x.binary)
	if err != nil {
		return "", fmt.Errorf("converter %q not found: %w", x.binary, err)
	}

	if x.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, x.timeout)
		defer cancel()
	}

	outDir := filepath.Dir(source)
	out, err := x.run(ctx, bin, "--headless", "--convert-to", format, "--outdir", outDir, source)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("converter timed out after %s", x.timeout)
		}
		return "", fmt.Errorf("converter failed: %w: %s", err, strings.TrimSpace(string(out)))
	}

	target := ExportPath(source, format)
	if _, err := os.Stat(target); err != nil {
		return "", fmt.Errorf("converter produced no %s output: %w", format, err)
	}
	return target, nil
}

// ExportPath returns where a converter writes the export of source. A format
// may carry a filter after a colon ("pdf:writer_pdf_Export").
func ExportPath(source, format string) string {
	ext, _, _ := strings.Cut(format, ":")
	return strings.TrimSuffix(source, filepath.Ext(source)) + "." + ext
}
