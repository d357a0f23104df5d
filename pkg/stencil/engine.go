package stencil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/benjaminschreck/go-coverletter/pkg/stencil/docx"
)

// State is a step of the generation state machine
type State int

const (
	StateIdle State = iota
	StateValidating
	StateValidationFailed
	// StateDeclined means the user refused to create the output directory
	StateDeclined
	StateCopyingTemplate
	StateCopyFailed
	StateSubstituting
	StateSubstitutionFailed
	StateSaving
	StateSaveFailed
	StateExporting
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateValidationFailed:
		return "validation-failed"
	case StateDeclined:
		return "declined"
	case StateCopyingTemplate:
		return "copying-template"
	case StateCopyFailed:
		return "copy-failed"
	case StateSubstituting:
		return "substituting"
	case StateSubstitutionFailed:
		return "substitution-failed"
	case StateSaving:
		return "saving"
	case StateSaveFailed:
		return "save-failed"
	case StateExporting:
		return "exporting"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition follows s
func (s State) Terminal() bool {
	switch s {
	case StateValidationFailed, StateDeclined, StateCopyFailed,
		StateSubstitutionFailed, StateSaveFailed, StateDone:
		return true
	}
	return false
}

// GenerationRequest is a fully resolved generation: every path and value is
// supplied by the caller.
type GenerationRequest struct {
	TemplatePath   string
	Substitutions  *SubstitutionMap
	RequiredTokens []string
	// OutputDir is the directory the output file is written to
	OutputDir string
	// BaseName is the output file name without extension
	BaseName string
	// Fields are validated before any file is touched
	Fields []Field
}

// Result describes the outcome of a generation. Issues are fatal; warnings
// are informational and may accompany a successful run.
type Result struct {
	RequestID     string
	State         State
	TemplatePath  string
	OutputDir     string
	OutputPath    string
	ExportPath    string
	MissingTokens []string
	// Replaced counts the rewritten paragraphs
	Replaced int
	Issues   []Issue
	Warnings []Issue
}

// Succeeded reports whether the output document was written
func (r *Result) Succeeded() bool {
	return r.State == StateDone
}

// Err returns nil on success and a *GenerationError otherwise
func (r *Result) Err() error {
	if r.State == StateDone && len(r.Issues) == 0 {
		return nil
	}
	return &GenerationError{State: r.State, Issues: r.Issues}
}

// generation tracks one request through the state machine
type generation struct {
	engine *Engine
	log    *Logger
	result *Result
}

func (e *Engine) begin() *generation {
	id := e.newID()
	return &generation{
		engine: e,
		log:    e.log().WithField("request_id", id),
		result: &Result{RequestID: id, State: StateIdle},
	}
}

func (g *generation) enter(s State) {
	g.log.Debug("state %s -> %s", g.result.State, s)
	g.result.State = s
}

func (g *generation) fail(s State, issues ...Issue) *Result {
	g.enter(s)
	g.result.Issues = append(g.result.Issues, issues...)
	for _, issue := range issues {
		g.log.Warn("generation failed: [%s] %s", issue.Category, issue)
	}
	return g.result
}

func (g *generation) warn(issue Issue) {
	g.result.Warnings = append(g.result.Warnings, issue)
	g.log.Info("warning: %s", issue)
}

// Generate produces a cover letter from the selected template using the
// current settings. The returned result is never nil.
func (e *Engine) Generate(ctx context.Context, req CoverLetterRequest) *Result {
	g := e.begin()
	g.enter(StateValidating)

	if e.settings == nil {
		return g.fail(StateValidationFailed, incompleteSettingsIssue)
	}
	settings, err := e.settings.Load()
	if err != nil {
		return g.fail(StateValidationFailed, newIssue(CategoryIO, "settings", "Settings could not be loaded: %v", err))
	}
	settings = settings.Trimmed()
	if !settings.Complete() {
		return g.fail(StateValidationFailed, incompleteSettingsIssue)
	}

	fields := req.Fields()
	if issues := ValidateFields(fields); len(issues) > 0 {
		return g.fail(StateValidationFailed, issues...)
	}

	req = req.Trimmed()
	if issues := checkNames(
		Field{Name: "template", Label: "Template", Value: req.Template},
		Field{Name: "document", Label: "Document", Value: req.Document},
		Field{Name: "company_name", Label: "Company Name", Value: PathElement(req.CompanyName)},
		Field{Name: "job_title", Label: "Job Title", Value: PathElement(req.JobTitle)},
		Field{Name: "first_name", Label: "First Name", Value: PathElement(settings.FirstName)},
		Field{Name: "last_name", Label: "Last Name", Value: PathElement(settings.LastName)},
	); len(issues) > 0 {
		return g.fail(StateValidationFailed, issues...)
	}

	subs, err := req.Substitutions(settings)
	if err != nil {
		return g.fail(StateValidationFailed, newIssue(CategoryValidation, "", "%v", err))
	}

	return e.execute(ctx, g, GenerationRequest{
		TemplatePath:   filepath.Join(settings.TemplatesRoot, req.Template, req.Document),
		Substitutions:  subs,
		RequiredTokens: e.config.RequiredTokens,
		OutputDir:      OutputDir(settings.OutputRoot, req.CompanyName, req.JobTitle),
		BaseName:       OutputBaseName(settings.FirstName, settings.LastName, e.config.DocumentKind),
		Fields:         fields,
	})
}

// Execute runs a resolved request through validation, copy, substitution,
// save and the optional export.
//
// Validation completes before any file is created. A declined confirmation
// leaves the filesystem untouched. A failed substitution or save removes the
// partially written output; a failed export is reported as a warning and
// keeps the saved document.
func (e *Engine) Execute(ctx context.Context, req GenerationRequest) *Result {
	g := e.begin()
	g.enter(StateValidating)
	return e.execute(ctx, g, req)
}

func (e *Engine) execute(ctx context.Context, g *generation, req GenerationRequest) *Result {
	g.result.TemplatePath = req.TemplatePath
	g.result.OutputDir = req.OutputDir

	if issues := ValidateFields(req.Fields); len(issues) > 0 {
		return g.fail(StateValidationFailed, issues...)
	}
	if issues := e.validateRequest(req); len(issues) > 0 {
		return g.fail(StateValidationFailed, issues...)
	}
	if err := ctx.Err(); err != nil {
		return g.fail(StateValidationFailed, newIssue(CategoryIO, "", "Generation cancelled: %v", err))
	}

	if !g.checkTemplate(req.TemplatePath, req.RequiredTokens) {
		return g.result
	}

	target := filepath.Join(req.OutputDir, req.BaseName+e.config.PackageExtension)
	createDir, ok := g.checkOutput(ctx, req.OutputDir, target)
	if !ok {
		return g.result
	}

	g.enter(StateCopyingTemplate)
	if createDir {
		if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
			return g.fail(StateCopyFailed, newIssue(CategoryIO, "output_dir", "Output directory %s could not be created: %v", req.OutputDir, err))
		}
		g.log.Debug("created output directory %s", req.OutputDir)
	}
	if err := copyFile(req.TemplatePath, target); err != nil {
		category := CategoryIO
		if errors.Is(err, fs.ErrExist) {
			category = CategoryCollision
		}
		return g.fail(StateCopyFailed, newIssue(category, "output", "Template could not be copied to %s: %v", target, err))
	}

	g.enter(StateSubstituting)
	if !g.fill(target, req.Substitutions) {
		if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
			g.log.Warn("failed to remove incomplete output %s: %v", target, err)
		}
		return g.result
	}
	g.result.OutputPath = target

	if e.config.Export.Enabled && e.exporter != nil {
		g.enter(StateExporting)
		exported, err := e.exporter.Export(ctx, target, e.config.Export.Format)
		if err != nil {
			g.warn(newIssue(CategoryExport, "export", "Export to %s failed: %v", e.config.Export.Format, err))
		} else {
			g.result.ExportPath = exported
		}
	}

	g.enter(StateDone)
	g.log.Info("generated %s (%d paragraphs rewritten)", target, g.result.Replaced)
	return g.result
}

func (e *Engine) validateRequest(req GenerationRequest) []Issue {
	var issues []Issue
	switch {
	case strings.TrimSpace(req.TemplatePath) == "":
		issues = append(issues, newIssue(CategoryValidation, "template", "Template must be specified."))
	case !IsTemplateFile(req.TemplatePath):
		issues = append(issues, newIssue(CategoryValidation, "template", "%s is not a word-processing template.", filepath.Base(req.TemplatePath)))
	}
	if req.OutputDir == "" || !filepath.IsAbs(req.OutputDir) {
		issues = append(issues, newIssue(CategoryValidation, "output_dir", "Output directory must be an absolute path: %q", req.OutputDir))
	}
	if strings.TrimSpace(req.BaseName) == "" {
		issues = append(issues, newIssue(CategoryValidation, "output", "Output file name must be specified."))
	} else if issue := checkName("output", "Output file name", req.BaseName); issue != nil {
		issues = append(issues, *issue)
	}
	return issues
}

// checkTemplate opens the template read-only and verifies the required
// tokens. The template is closed again before anything is copied.
func (g *generation) checkTemplate(path string, required []string) bool {
	pkg, err := docx.Open(path, docx.ReadOnly)
	if err != nil {
		g.fail(StateValidationFailed, newIssue(classifyPackageError(err), "template", "Template %s could not be opened: %v", path, err))
		return false
	}
	defer pkg.Close()

	body, err := pkg.Body()
	if err != nil {
		g.fail(StateValidationFailed, newIssue(classifyPackageError(err), "template", "Template %s has no document body: %v", path, err))
		return false
	}

	missing := MissingTokens(BodyText(body), required)
	if len(missing) > 0 {
		g.result.MissingTokens = missing
		g.fail(StateValidationFailed, newIssue(CategoryValidation, "template",
			"Document missing parameters. Required parameters are %s", strings.Join(missing, ", ")))
		return false
	}
	return true
}

// checkOutput applies the output location rules: an existing file is a
// collision, an existing directory a warning, and a missing directory is
// created only after confirmation.
func (g *generation) checkOutput(ctx context.Context, dir, target string) (createDir, ok bool) {
	info, err := os.Stat(dir)
	switch {
	case err == nil && !info.IsDir():
		g.fail(StateValidationFailed, newIssue(CategoryIO, "output_dir", "%s exists and is not a directory.", dir))
		return false, false
	case err == nil:
		if _, err := os.Lstat(target); err == nil {
			g.fail(StateValidationFailed, newIssue(CategoryCollision, "output", "Output file %s already exists.", target))
			return false, false
		} else if !errors.Is(err, fs.ErrNotExist) {
			g.fail(StateValidationFailed, newIssue(CategoryIO, "output", "Output file %s could not be checked: %v", target, err))
			return false, false
		}
		g.warn(newIssue(CategoryCollision, "output_dir", "Output directory %s already exists.", dir))
		return false, true
	case !errors.Is(err, fs.ErrNotExist):
		g.fail(StateValidationFailed, newIssue(CategoryIO, "output_dir", "Output directory %s could not be checked: %v", dir, err))
		return false, false
	}

	if g.engine.confirmer == nil {
		g.fail(StateDeclined, newIssue(CategoryValidation, "output_dir", "Output directory %s does not exist and its creation was not confirmed.", dir))
		return false, false
	}
	confirmed, err := g.engine.confirmer.Confirm(ctx, "Create output directory",
		fmt.Sprintf("Output directory %s does not exist. Create it?", dir))
	if err != nil {
		g.fail(StateValidationFailed, newIssue(CategoryIO, "output_dir", "Confirmation failed: %v", err))
		return false, false
	}
	if !confirmed {
		g.fail(StateDeclined, newIssue(CategoryValidation, "output_dir", "Creation of output directory %s was declined.", dir))
		return false, false
	}
	return true, true
}

// fill substitutes placeholders in the copied template and saves it.
func (g *generation) fill(target string, subs *SubstitutionMap) bool {
	pkg, err := docx.Open(target, docx.ReadWrite)
	if err != nil {
		g.fail(StateSubstitutionFailed, newIssue(classifyPackageError(err), "output", "Copied template %s could not be opened: %v", target, err))
		return false
	}
	defer func() {
		if err := pkg.Close(); err != nil {
			g.log.Warn("failed to close %s: %v", target, err)
		}
	}()

	body, err := pkg.Body()
	if err != nil {
		g.fail(StateSubstitutionFailed, newIssue(classifyPackageError(err), "output", "Copied template %s has no document body: %v", target, err))
		return false
	}

	replaced, err := rewriteSafely(g.engine.rewrite, body, subs)
	if err != nil {
		g.fail(StateSubstitutionFailed, newIssue(CategoryFormat, "output", "Substitution failed: %v", err))
		return false
	}
	g.result.Replaced = replaced

	g.enter(StateSaving)
	if err := g.engine.save(pkg); err != nil {
		// close now so the output can be removed; both failures are reported
		errs := NewMultiError()
		errs.Add(err)
		errs.Add(pkg.Close())
		g.fail(StateSaveFailed, newIssue(CategoryIO, "output", "Output %s could not be saved: %v", target, errs.Err()))
		return false
	}
	if err := pkg.LockError(); err != nil {
		g.log.Debug("lock on %s not reacquired after save: %v", target, err)
	}
	return true
}

func rewriteSafely(rewrite func(*docx.Body, *SubstitutionMap) int, body *docx.Body, subs *SubstitutionMap) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = RecoverError(r)
		}
	}()
	return rewrite(body, subs), nil
}

// copyFile copies src to a new file dst. It never overwrites: an existing
// dst fails with fs.ErrExist.
func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(dst)
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
