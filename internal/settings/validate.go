package settings

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/benjaminschreck/go-coverletter/pkg/stencil"
)

// Report is the outcome of validating or applying settings
type Report struct {
	Issues   []stencil.Issue
	Warnings []stencil.Issue
	// CreateOutputRoot is set when the output directory does not exist yet
	CreateOutputRoot bool
	// Declined is set when the user refused to create the output directory
	Declined bool
	Saved    bool
}

// OK reports whether the settings can be saved
func (r *Report) OK() bool {
	return len(r.Issues) == 0
}

// Validate checks settings before they are saved. Both directories must be
// absolute paths, the templates directory must exist and names must not be
// blank. A missing output directory is a warning: it may be created.
func Validate(s stencil.Settings) *Report {
	s = s.Trimmed()
	report := &Report{}

	report.Issues = append(report.Issues, stencil.ValidateFields(s.Fields())...)

	if s.TemplatesRoot != "" {
		if !filepath.IsAbs(s.TemplatesRoot) {
			report.Issues = append(report.Issues, issue(stencil.CategoryValidation, "templates_root", "Templates Directory must be an absolute path."))
		} else if info, err := os.Stat(s.TemplatesRoot); err != nil || !info.IsDir() {
			report.Issues = append(report.Issues, issue(stencil.CategoryValidation, "templates_root",
				fmt.Sprintf("Templates Directory %s does not exist.", s.TemplatesRoot)))
		}
	}

	if s.OutputRoot != "" {
		if !filepath.IsAbs(s.OutputRoot) {
			report.Issues = append(report.Issues, issue(stencil.CategoryValidation, "output_root", "Output Directory must be an absolute path."))
		} else if info, err := os.Stat(s.OutputRoot); errors.Is(err, fs.ErrNotExist) {
			report.CreateOutputRoot = true
			report.Warnings = append(report.Warnings, issue(stencil.CategoryValidation, "output_root",
				fmt.Sprintf("Output Directory %s does not exist.", s.OutputRoot)))
		} else if err != nil {
			report.Issues = append(report.Issues, issue(stencil.CategoryIO, "output_root", err.Error()))
		} else if !info.IsDir() {
			report.Issues = append(report.Issues, issue(stencil.CategoryValidation, "output_root",
				fmt.Sprintf("Output Directory %s is not a directory.", s.OutputRoot)))
		}
	}

	return report
}

// Apply validates settings and saves them. A missing output directory is
// created after confirmation; when the user declines, or no confirmer is
// given, nothing is saved.
func Apply(ctx context.Context, store *FileStore, s stencil.Settings, confirmer stencil.Confirmer) (*Report, error) {
	s = s.Trimmed()
	report := Validate(s)
	if !report.OK() {
		return report, nil
	}

	if report.CreateOutputRoot {
		if confirmer == nil {
			report.Declined = true
			return report, nil
		}
		ok, err := confirmer.Confirm(ctx, "Create output directory",
			fmt.Sprintf("Output Directory %s does not exist. Create it?", s.OutputRoot))
		if err != nil {
			return report, err
		}
		if !ok {
			report.Declined = true
			return report, nil
		}
		if err := os.MkdirAll(s.OutputRoot, 0o755); err != nil {
			report.Issues = append(report.Issues, issue(stencil.CategoryIO, "output_root",
				fmt.Sprintf("Output Directory %s could not be created: %v", s.OutputRoot, err)))
			return report, nil
		}
	}

	if err := store.Save(s); err != nil {
		return report, err
	}
	report.Saved = true
	return report, nil
}

func issue(category stencil.ErrorCategory, field, message string) stencil.Issue {
	return stencil.Issue{Category: category, Field: field, Message: message}
}
