package stencil

import (
	"fmt"
	"strings"
)

// Field is one entry of an explicit validation list
type Field struct {
	Name     string
	Label    string
	Value    string
	Required bool
}

// ValidateFields checks each required field in order. Values are trimmed
// before the blank check, so whitespace-only input counts as missing.
func ValidateFields(fields []Field) []Issue {
	var issues []Issue
	for _, f := range fields {
		if f.Required && strings.TrimSpace(f.Value) == "" {
			issues = append(issues, newIssue(CategoryValidation, f.Name, "%s must be specified.", f.Label))
		}
	}
	return issues
}

// Settings are the persisted, user-level values a generation depends on
type Settings struct {
	TemplatesRoot string `yaml:"templates_root" mapstructure:"templates_root"`
	OutputRoot    string `yaml:"output_root" mapstructure:"output_root"`
	FirstName     string `yaml:"first_name" mapstructure:"first_name"`
	LastName      string `yaml:"last_name" mapstructure:"last_name"`
}

// Fields lists every setting; all of them are required
func (s Settings) Fields() []Field {
	return []Field{
		{Name: "templates_root", Label: "Templates Directory", Value: s.TemplatesRoot, Required: true},
		{Name: "output_root", Label: "Output Directory", Value: s.OutputRoot, Required: true},
		{Name: "first_name", Label: "First Name", Value: s.FirstName, Required: true},
		{Name: "last_name", Label: "Last Name", Value: s.LastName, Required: true},
	}
}

// Complete reports whether every setting has a non-blank value
func (s Settings) Complete() bool {
	return len(ValidateFields(s.Fields())) == 0
}

// Trimmed returns a copy with surrounding whitespace removed from every value
func (s Settings) Trimmed() Settings {
	return Settings{
		TemplatesRoot: strings.TrimSpace(s.TemplatesRoot),
		OutputRoot:    strings.TrimSpace(s.OutputRoot),
		FirstName:     strings.TrimSpace(s.FirstName),
		LastName:      strings.TrimSpace(s.LastName),
	}
}

// SettingsProvider supplies the current settings at generation time
type SettingsProvider interface {
	Load() (Settings, error)
}

// SettingsFunc adapts a function to SettingsProvider
type SettingsFunc func() (Settings, error)

func (f SettingsFunc) Load() (Settings, error) {
	return f()
}

// StaticSettings is a SettingsProvider that always returns itself
type StaticSettings Settings

func (s StaticSettings) Load() (Settings, error) {
	return Settings(s), nil
}

var incompleteSettingsIssue = Issue{
	Category: CategoryValidation,
	Field:    "settings",
	Message:  "All settings must be specified before generating a cover letter.",
}

// CoverLetterRequest holds the per-letter input of a generation
type CoverLetterRequest struct {
	// Template is a sub-directory of the templates root
	Template string
	// Document is a template file inside Template
	Document    string
	JobSource   string
	CompanyName string
	JobTitle    string
}

// Fields lists the request fields in the order they are reported
func (r CoverLetterRequest) Fields() []Field {
	return []Field{
		{Name: "template", Label: "Template", Value: r.Template, Required: true},
		{Name: "job_source", Label: "Job Source", Value: r.JobSource, Required: true},
		{Name: "company_name", Label: "Company Name", Value: r.CompanyName, Required: true},
		{Name: "job_title", Label: "Job Title", Value: r.JobTitle, Required: true},
		{Name: "document", Label: "Document", Value: r.Document, Required: true},
	}
}

// Trimmed returns a copy with surrounding whitespace removed from every value
func (r CoverLetterRequest) Trimmed() CoverLetterRequest {
	return CoverLetterRequest{
		Template:    strings.TrimSpace(r.Template),
		Document:    strings.TrimSpace(r.Document),
		JobSource:   strings.TrimSpace(r.JobSource),
		CompanyName: strings.TrimSpace(r.CompanyName),
		JobTitle:    strings.TrimSpace(r.JobTitle),
	}
}

// Substitutions builds the placeholder values for this request
func (r CoverLetterRequest) Substitutions(s Settings) (*SubstitutionMap, error) {
	subs, err := NewSubstitutionMap(
		Substitution{Token: TokenJobSource, Value: r.JobSource},
		Substitution{Token: TokenCompanyName, Value: r.CompanyName},
		Substitution{Token: TokenFirstName, Value: s.FirstName},
		Substitution{Token: TokenLastName, Value: s.LastName},
		Substitution{Token: TokenJobTitle, Value: r.JobTitle},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build substitutions: %w", err)
	}
	return subs, nil
}
