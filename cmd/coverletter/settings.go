package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/benjaminschreck/go-coverletter/internal/settings"
	"github.com/benjaminschreck/go-coverletter/pkg/stencil"
)

func newSettingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the settings",
	}
	cmd.AddCommand(newSettingsShowCmd(a))
	cmd.AddCommand(newSettingsSetCmd(a))
	cmd.AddCommand(newSettingsWatchCmd(a))
	return cmd
}

func newSettingsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := a.store.Load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render("Settings")+" "+subtitleStyle.Render(a.store.Path()))
			for _, f := range current.Fields() {
				value := f.Value
				if value == "" {
					value = warningStyle.Render("(not set)")
				}
				fmt.Fprintln(out, labelStyle.Render(f.Label)+value)
			}
			return nil
		},
	}
}

func newSettingsSetCmd(a *app) *cobra.Command {
	var update stencil.Settings
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change settings; unspecified values are kept",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := a.store.Load()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("templates") {
				current.TemplatesRoot = update.TemplatesRoot
			}
			if flags.Changed("output") {
				current.OutputRoot = update.OutputRoot
			}
			if flags.Changed("first") {
				current.FirstName = update.FirstName
			}
			if flags.Changed("last") {
				current.LastName = update.LastName
			}

			report, err := settings.Apply(cmd.Context(), a.store, current, a.newPrompter(a.assumeYes))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, w := range report.Warnings {
				fmt.Fprintln(out, warningStyle.Render("Warning: ")+w.Message)
			}
			for _, issue := range report.Issues {
				fmt.Fprintln(out, errorStyle.Render("✗ ")+issue.Message)
			}
			switch {
			case report.Declined:
				fmt.Fprintln(out, subtitleStyle.Render("Settings not saved."))
				return nil
			case !report.Saved:
				return &exitError{code: 1}
			}
			fmt.Fprintln(out, successStyle.Render("✓ ")+"Settings saved to "+a.store.Path())
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&update.TemplatesRoot, "templates", "", "templates directory (absolute path)")
	flags.StringVar(&update.OutputRoot, "output", "", "output directory (absolute path)")
	flags.StringVar(&update.FirstName, "first", "", "first name")
	flags.StringVar(&update.LastName, "last", "", "last name")
	return cmd
}

func newSettingsWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Validate the settings file whenever it changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			if err := os.MkdirAll(a.store.Dir(), 0o755); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			w, err := settings.NewWatcher(a.store, settings.DefaultDebounce, func(s stencil.Settings, err error) {
				if err != nil {
					fmt.Fprintln(out, errorStyle.Render("✗ ")+err.Error())
					return
				}
				report := settings.Validate(s)
				for _, issue := range report.Issues {
					fmt.Fprintln(out, errorStyle.Render("✗ ")+issue.Message)
				}
				for _, w := range report.Warnings {
					fmt.Fprintln(out, warningStyle.Render("Warning: ")+w.Message)
				}
				if report.OK() {
					fmt.Fprintln(out, successStyle.Render("✓ ")+"Settings are valid")
				}
			})
			if err != nil {
				return err
			}
			if err := w.Start(ctx); err != nil {
				return err
			}
			defer w.Stop()

			fmt.Fprintln(out, subtitleStyle.Render("Watching "+a.store.Path()+" (Ctrl+C to stop)"))
			<-ctx.Done()
			if ctx.Err() == context.Canceled {
				return nil
			}
			return ctx.Err()
		},
	}
}
