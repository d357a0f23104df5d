package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/benjaminschreck/go-coverletter/internal/history"
	"github.com/benjaminschreck/go-coverletter/pkg/stencil"
)

type generateOptions struct {
	request     stencil.CoverLetterRequest
	interactive bool
	titleCase   bool
	export      bool
	open        bool
}

func newGenerateCmd(a *app) *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a cover letter from a template",
		Long: `Generate a cover letter from a template.

The template is copied to <output>/<company>/<title>/<first> <last> Cover Letter.docx
and its placeholders are replaced. An existing output file is never overwritten.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGenerate(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.request.Template, "template", "t", "", "template directory name")
	flags.StringVarP(&opts.request.Document, "document", "d", "", "template document file name")
	flags.StringVar(&opts.request.JobSource, "source", "", "where the job posting was found")
	flags.StringVar(&opts.request.CompanyName, "company", "", "company name")
	flags.StringVar(&opts.request.JobTitle, "title", "", "job title")
	flags.BoolVarP(&opts.interactive, "interactive", "i", false, "prompt for missing values")
	flags.BoolVar(&opts.titleCase, "title-case", false, "title-case the company name and job title")
	flags.BoolVar(&opts.export, "export", false, "export the letter after saving (see export.format)")
	flags.BoolVar(&opts.open, "open", false, "open the generated letter")
	return cmd
}

func (a *app) runGenerate(cmd *cobra.Command, opts *generateOptions) error {
	ctx := cmd.Context()
	p := a.newPrompter(a.assumeYes)
	req := opts.request

	if opts.interactive {
		if err := a.fillRequest(ctx, p, &req); err != nil {
			return err
		}
	}
	if opts.titleCase {
		req.CompanyName = stencil.NormalizeDisplay(req.CompanyName)
		req.JobTitle = stencil.NormalizeDisplay(req.JobTitle)
	}

	cfg := *a.config
	if opts.export {
		cfg.Export.Enabled = true
	}

	engine := stencil.NewWithOptions(a.store,
		stencil.WithConfig(&cfg),
		stencil.WithConfirmer(p),
		stencil.WithExporter(stencil.NewConverterExporter(cfg.Export)),
		stencil.WithLogger(stencil.GetLogger()),
	)
	result := engine.Generate(ctx, req)

	out := cmd.OutOrStdout()
	printResult(out, result)

	switch result.State {
	case stencil.StateDone:
	case stencil.StateDeclined:
		fmt.Fprintln(out, subtitleStyle.Render("Cancelled."))
		return nil
	default:
		return &exitError{code: 1}
	}

	a.recordHistory(ctx, out, req.Trimmed(), result)

	if opts.open {
		target := result.OutputPath
		if result.ExportPath != "" {
			target = result.ExportPath
		}
		if err := a.openFile(target); err != nil {
			fmt.Fprintln(out, warningStyle.Render("Warning: ")+fmt.Sprintf("could not open %s: %v", target, err))
		}
	}
	return nil
}

// fillRequest prompts for every value left empty on the command line
func (a *app) fillRequest(ctx context.Context, p prompter, req *stencil.CoverLetterRequest) error {
	current, err := a.store.Load()
	if err != nil {
		return err
	}

	if req.Template == "" {
		names, err := stencil.ListTemplates(current.TemplatesRoot)
		if err != nil {
			return err
		}
		if req.Template, err = p.Select(ctx, "Template", names); err != nil {
			return fmt.Errorf("no template selected: %w", err)
		}
	}
	if req.Document == "" {
		names, err := stencil.ListDocuments(current.TemplatesRoot, req.Template)
		if err != nil {
			return err
		}
		if req.Document, err = p.Select(ctx, "Document", names); err != nil {
			return fmt.Errorf("no document selected: %w", err)
		}
	}

	inputs := []struct {
		label string
		value *string
	}{
		{"Job Source", &req.JobSource},
		{"Company Name", &req.CompanyName},
		{"Job Title", &req.JobTitle},
	}
	for _, in := range inputs {
		if *in.value != "" {
			continue
		}
		v, err := p.Input(ctx, in.label, "")
		if err != nil {
			return err
		}
		*in.value = v
	}
	return nil
}

func (a *app) recordHistory(ctx context.Context, out io.Writer, req stencil.CoverLetterRequest, result *stencil.Result) {
	log := stencil.WithField("request_id", result.RequestID)
	if err := os.MkdirAll(a.store.Dir(), 0o755); err != nil {
		log.Warn("history not recorded: %v", err)
		return
	}

	store, err := history.Open(history.DefaultPath(a.store.Dir()))
	if err != nil {
		log.Warn("history not recorded: %v", err)
		return
	}
	defer store.Close()

	_, err = store.Record(ctx, history.Entry{
		RequestID:   result.RequestID,
		Template:    req.Template,
		Document:    req.Document,
		CompanyName: req.CompanyName,
		JobTitle:    req.JobTitle,
		JobSource:   req.JobSource,
		OutputPath:  result.OutputPath,
		ExportPath:  result.ExportPath,
	})
	if err != nil {
		log.Warn("history not recorded: %v", err)
		fmt.Fprintln(out, warningStyle.Render("Warning: ")+"history not recorded")
	}
}

func printResult(out io.Writer, result *stencil.Result) {
	for _, w := range result.Warnings {
		fmt.Fprintln(out, warningStyle.Render("Warning: ")+w.Message)
	}
	for _, issue := range result.Issues {
		fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("[%s] ", issue.Category))+issue.Message)
	}
	if result.State != stencil.StateDone {
		return
	}

	fmt.Fprintln(out, successStyle.Render("✓ ")+"Cover letter created")
	fmt.Fprintln(out, labelStyle.Render("Document")+result.OutputPath)
	if result.ExportPath != "" {
		fmt.Fprintln(out, labelStyle.Render("Export")+result.ExportPath)
	}
}

func openWithDefaultApp(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	return cmd.Start()
}
