package stencil

import (
	"path/filepath"
	"runtime"
	"strings"
	"unicode"
)

// pathSeparators never appear inside a single path element
const pathSeparators = `/\`

// windowsReservedChars cannot appear in a file name on Windows
const windowsReservedChars = `<>:"|?*`

// templateExtensions are the package extensions accepted as templates
var templateExtensions = map[string]bool{
	".docx": true,
	".dotx": true,
}

// IsTemplateFile reports whether name has a word-processing package extension
func IsTemplateFile(name string) bool {
	return templateExtensions[strings.ToLower(filepath.Ext(name))]
}

// OutputBaseName returns "<first> <last> <kind>" with the names made safe
// for a file name.
func OutputBaseName(firstName, lastName, kind string) string {
	return strings.Join([]string{
		PathElement(firstName),
		PathElement(lastName),
		strings.TrimSpace(kind),
	}, " ")
}

// OutputDir returns <root>/<company>/<title>. Company and title are each
// turned into one path element, so they never leave root.
func OutputDir(root, company, title string) string {
	return filepath.Join(root, PathElement(company), PathElement(title))
}

// PathElement turns a display value such as "C++/C# Developer" into a single
// path element. Path separators become "-". On Windows the reserved
// characters become "-" as well and trailing dots and spaces are dropped.
func PathElement(value string) string {
	return pathElement(value, runtime.GOOS)
}

func pathElement(value, goos string) string {
	replace := pathSeparators
	if goos == "windows" {
		replace += windowsReservedChars
	}
	out := strings.Map(func(r rune) rune {
		if strings.ContainsRune(replace, r) {
			return '-'
		}
		return r
	}, strings.TrimSpace(value))
	if goos == "windows" {
		out = strings.TrimRight(out, ". ")
	}
	return out
}

// checkName reports an issue when value cannot be used as a single path
// element: it must not be empty, navigate, or contain separators or control
// characters.
func checkName(field, label, value string) *Issue {
	switch {
	case value == "":
		issue := newIssue(CategoryValidation, field, "%s cannot be used as a file name.", label)
		return &issue
	case value == "." || value == "..":
		issue := newIssue(CategoryValidation, field, "%s cannot be %q.", label, value)
		return &issue
	case strings.ContainsAny(value, pathSeparators):
		issue := newIssue(CategoryValidation, field, "%s cannot contain a path separator.", label)
		return &issue
	case strings.IndexFunc(value, unicode.IsControl) >= 0:
		issue := newIssue(CategoryValidation, field, "%s cannot contain control characters.", label)
		return &issue
	}
	return nil
}

func checkNames(fields ...Field) []Issue {
	var issues []Issue
	for _, f := range fields {
		if issue := checkName(f.Name, f.Label, f.Value); issue != nil {
			issues = append(issues, *issue)
		}
	}
	return issues
}
