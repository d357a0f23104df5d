package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/benjaminschreck/go-coverletter/pkg/stencil"
)

func newTemplatesCmd(a *app) *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "templates [template]",
		Short: "List template directories, or the documents of one template",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := a.store.Load()
			if err != nil {
				return err
			}
			if strings.TrimSpace(current.TemplatesRoot) == "" {
				return &exitError{code: 1, err: fmt.Errorf("templates directory is not set; run 'coverletter settings set --templates <dir>'")}
			}

			var names []string
			if len(args) == 0 {
				names, err = stencil.ListTemplates(current.TemplatesRoot)
			} else {
				names, err = stencil.ListDocuments(current.TemplatesRoot, args[0])
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(names) == 0 {
				fmt.Fprintln(out, subtitleStyle.Render("No templates found."))
				return nil
			}
			if !check || len(args) == 0 {
				for _, name := range names {
					fmt.Fprintln(out, name)
				}
				return nil
			}

			engine := stencil.NewWithOptions(a.store, stencil.WithConfig(a.config))
			failed := false
			for _, name := range names {
				_, missing, err := engine.Placeholders(filepath.Join(current.TemplatesRoot, args[0], name))
				switch {
				case err != nil:
					failed = true
					fmt.Fprintln(out, errorStyle.Render("✗ ")+name+": "+err.Error())
				case len(missing) > 0:
					failed = true
					fmt.Fprintln(out, warningStyle.Render("✗ ")+name+": missing "+strings.Join(missing, ", "))
				default:
					fmt.Fprintln(out, successStyle.Render("✓ ")+name)
				}
			}
			if failed {
				return &exitError{code: 1}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "check each document for the required placeholders")
	return cmd
}

func newPlaceholdersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "placeholders <template> <document> | placeholders <path>",
		Short: "Show the placeholders of a template document",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if len(args) == 2 {
				current, err := a.store.Load()
				if err != nil {
					return err
				}
				path = filepath.Join(current.TemplatesRoot, args[0], args[1])
			}

			engine := stencil.NewWithOptions(a.store, stencil.WithConfig(a.config))
			tokens, missing, err := engine.Placeholders(path)
			if err != nil {
				return &exitError{code: 1, err: err}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render(filepath.Base(path)))
			for _, token := range tokens {
				fmt.Fprintln(out, "  "+token)
			}

			if len(missing) > 0 {
				fmt.Fprintln(out, warningStyle.Render("Missing: ")+strings.Join(missing, ", "))
				return &exitError{code: 1}
			}
			fmt.Fprintln(out, successStyle.Render("✓ ")+"All required placeholders present")
			return nil
		},
	}
}
