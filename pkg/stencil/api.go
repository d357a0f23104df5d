package stencil

import (
	"context"

	"github.com/benjaminschreck/go-coverletter/pkg/stencil/docx"
	"github.com/google/uuid"
)

// Confirmer asks the user a yes/no question. It is consulted once per
// generation, before an output directory is created.
type Confirmer interface {
	Confirm(ctx context.Context, title, message string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(ctx context.Context, title, message string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, title, message string) (bool, error) {
	return f(ctx, title, message)
}

// AutoConfirm accepts every question. Use it for non-interactive callers
// that have already agreed to directory creation.
var AutoConfirm ConfirmFunc = func(context.Context, string, string) (bool, error) {
	return true, nil
}

// Engine runs generation requests.
// Use New() to create a new engine instance.
type Engine struct {
	config    *Config
	settings  SettingsProvider
	confirmer Confirmer
	exporter  Exporter
	logger    *Logger
	scans     *ScanCache
	newID     func() string

	// document operations, replaced in tests to force failures
	rewrite func(*docx.Body, *SubstitutionMap) int
	save    func(*docx.Package) error
}

// New creates an engine that reads settings from provider and uses the
// global configuration.
func New(provider SettingsProvider) *Engine {
	config := GetGlobalConfig()
	return &Engine{
		config:   config,
		settings: provider,
		scans:    NewScanCache(config.Cache),
		newID:    uuid.NewString,
		rewrite:  RewriteBody,
		save:     (*docx.Package).Save,
	}
}

// NewWithOptions creates a new engine with the specified options.
func NewWithOptions(provider SettingsProvider, opts ...Option) *Engine {
	engine := New(provider)
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// Option represents a configuration option for the engine.
type Option func(*Engine)

// WithConfig returns an option that sets the engine configuration.
// Unset fields fall back to the defaults.
func WithConfig(config *Config) Option {
	return func(e *Engine) {
		e.config = NewConfigWithDefaults(config)
		e.scans = NewScanCache(e.config.Cache)
	}
}

// WithConfirmer sets the callback consulted before creating an output
// directory. Without one, a missing output directory is never created and
// the generation ends declined; pass AutoConfirm to create it unasked.
func WithConfirmer(c Confirmer) Option {
	return func(e *Engine) {
		e.confirmer = c
	}
}

// WithExporter sets the exporter used when export is enabled in the config.
func WithExporter(x Exporter) Option {
	return func(e *Engine) {
		e.exporter = x
	}
}

// WithLogger sets the engine's logger instead of the global one.
func WithLogger(l *Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// Config returns the engine's configuration.
func (e *Engine) Config() *Config {
	return e.config
}

func (e *Engine) log() *Logger {
	if e.logger != nil {
		return e.logger
	}
	return GetLogger()
}

// Placeholders returns the distinct placeholders of the template at path
// and the required ones it lacks. Scans are cached until the file changes.
func (e *Engine) Placeholders(path string) (tokens, missing []string, err error) {
	scan, err := e.scans.Inspect(path)
	if err != nil {
		return nil, nil, err
	}
	return scan.Tokens, scan.Missing(e.config.RequiredTokens), nil
}
