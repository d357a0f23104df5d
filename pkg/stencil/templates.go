package stencil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/benjaminschreck/go-coverletter/pkg/stencil/docx"
)

// ListTemplates returns the template sets under root: its non-hidden
// sub-directories, sorted by name. A missing root yields an empty list.
func ListTemplates(root string) ([]string, error) {
	entries, err := readDir(root)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() && !hidden(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// ListDocuments returns the template files of one template set, sorted by
// name. Office lock files ("~$name.docx") are skipped.
func ListDocuments(root, template string) ([]string, error) {
	entries, err := readDir(filepath.Join(root, template))
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || hidden(name) || strings.HasPrefix(name, "~$") {
			continue
		}
		if IsTemplateFile(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// TemplateScan is what a template offers for substitution
type TemplateScan struct {
	// Tokens are the distinct placeholders in document order
	Tokens []string
	// Text is the body text, one line per paragraph
	Text string
}

// Missing returns the required tokens absent from the body text. It applies
// the same check as generation, so a token spanning several placeholders is
// found here exactly when Generate finds it.
func (s *TemplateScan) Missing(required []string) []string {
	return MissingTokens(s.Text, required)
}

func (s *TemplateScan) clone() *TemplateScan {
	return &TemplateScan{Tokens: append([]string(nil), s.Tokens...), Text: s.Text}
}

// InspectTemplate reads the placeholders and body text of a template file
func InspectTemplate(path string) (*TemplateScan, error) {
	pkg, err := docx.Open(path, docx.ReadOnly)
	if err != nil {
		return nil, err
	}
	defer pkg.Close()

	body, err := pkg.Body()
	if err != nil {
		return nil, err
	}
	return &TemplateScan{Tokens: Scan(body), Text: BodyText(body)}, nil
}

// ScanTemplate returns the distinct placeholders of a template file
func ScanTemplate(path string) ([]string, error) {
	scan, err := InspectTemplate(path)
	if err != nil {
		return nil, err
	}
	return scan.Tokens, nil
}

func readDir(dir string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return entries, err
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
