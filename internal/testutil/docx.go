package testutil

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WordNamespace is the WordprocessingML namespace declaration used by fixtures
const WordNamespace = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

const contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const packageRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

// DocumentXML wraps body content in a w:document element
func DocumentXML(body string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
		`<w:document ` + WordNamespace + `><w:body>` + body + `</w:body></w:document>`
}

// Run returns a w:r element with optional raw w:rPr content
func Run(props, text string) string {
	var sb strings.Builder
	sb.WriteString("<w:r>")
	if props != "" {
		sb.WriteString("<w:rPr>" + props + "</w:rPr>")
	}
	sb.WriteString(`<w:t xml:space="preserve">`)
	xml.EscapeText(&sb, []byte(text))
	sb.WriteString("</w:t></w:r>")
	return sb.String()
}

// Paragraph returns a w:p element holding the given runs
func Paragraph(runs ...string) string {
	return "<w:p>" + strings.Join(runs, "") + "</w:p>"
}

// TextParagraphs returns one single-run paragraph per line of text
func TextParagraphs(lines ...string) string {
	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString(Paragraph(Run("", line)))
	}
	return sb.String()
}

// WritePackage writes a minimal package whose main part is documentXML to
// path, creating parent directories.
func WritePackage(t testing.TB, path, documentXML string) string {
	t.Helper()

	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	parts := []struct{ name, content string }{
		{"[Content_Types].xml", contentTypes},
		{"_rels/.rels", packageRels},
		{"word/document.xml", documentXML},
		{"word/styles.xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?><w:styles ` + WordNamespace + `/>`},
	}
	for _, p := range parts {
		f, err := w.Create(p.name)
		if err != nil {
			t.Fatalf("create %s: %v", p.name, err)
		}
		if _, err := f.Write([]byte(p.content)); err != nil {
			t.Fatalf("write %s: %v", p.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteTemplate writes a package with one single-run paragraph per line
func WriteTemplate(t testing.TB, path string, lines ...string) string {
	t.Helper()
	return WritePackage(t, path, DocumentXML(TextParagraphs(lines...)))
}

// ReadPart returns the content of a part of the package at path
func ReadPart(t testing.TB, path, name string) string {
	t.Helper()

	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open part %s: %v", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("read part %s: %v", name, err)
		}
		return string(data)
	}
	t.Fatalf("part %s not found in %s", name, path)
	return ""
}

// ReadDocument returns the main document part of the package at path
func ReadDocument(t testing.TB, path string) string {
	t.Helper()
	return ReadPart(t, path, "word/document.xml")
}
