package docx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

const (
	wordMLNamespace       = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	strictWordMLNamespace = "http://purl.oclc.org/ooxml/wordprocessingml/main"
)

// Document is the scanned primary part of a package.
//
// The raw XML is kept as read. Paragraph and run positions are byte offsets
// into it, so unchanged regions are written back without re-encoding.
type Document struct {
	raw    []byte
	prefix string
	body   *Body
}

// Body represents the document body in reading order
type Body struct {
	Paragraphs []*Paragraph
}

// Paragraph represents a w:p element of the body
type Paragraph struct {
	doc        *Document
	start, end int
	// closeAt is the offset of the closing </w:p> tag, -1 for <w:p/>
	closeAt    int
	properties []byte
	original   []*Run
	runs       []*Run
	replaced   bool
}

// Run represents a w:r element: text plus an opaque formatting descriptor
type Run struct {
	properties []byte
	text       string
	// src, start and end locate the run in its source XML; nil/-1 for new runs
	src        *Document
	start, end int
}

// NewRun creates a run carrying text and a copy of the given w:rPr bytes.
// A nil properties slice yields a run without formatting.
func NewRun(properties []byte, text string) *Run {
	return &Run{
		properties: cloneBytes(properties),
		text:       text,
		start:      -1,
		end:        -1,
	}
}

// Text returns the concatenated content of the run's w:t elements
func (r *Run) Text() string {
	return r.text
}

// Properties returns a copy of the raw w:rPr element, or nil when absent
func (r *Run) Properties() []byte {
	return cloneBytes(r.properties)
}

// Runs returns the paragraph's current run sequence.
// The returned slice may be modified freely; the runs themselves are immutable.
func (p *Paragraph) Runs() []*Run {
	runs := make([]*Run, len(p.runs))
	copy(runs, p.runs)
	return runs
}

// SetRuns replaces the paragraph's run sequence wholesale. When the document
// is serialized, all original runs are removed and the given runs are written
// as the last children of the paragraph.
func (p *Paragraph) SetRuns(runs ...*Run) {
	p.runs = make([]*Run, len(runs))
	copy(p.runs, runs)
	p.replaced = true
}

// Properties returns a copy of the raw w:pPr element, or nil when absent
func (p *Paragraph) Properties() []byte {
	return cloneBytes(p.properties)
}

// Modified reports whether SetRuns has been called on the paragraph
func (p *Paragraph) Modified() bool {
	return p.replaced
}

// Raw returns the paragraph's XML as it appears in the source document
func (p *Paragraph) Raw() []byte {
	return cloneBytes(p.doc.raw[p.start:p.end])
}

// ParseDocument scans the primary document part.
func ParseDocument(data []byte) (*Document, error) {
	doc := &Document{raw: data, prefix: "w"}
	s := &scanner{doc: doc, dec: xml.NewDecoder(bytes.NewReader(data))}
	if err := s.scan(); err != nil {
		return nil, err
	}
	return doc, nil
}

// Body returns the document body, or ErrEmptyDocument when the part has none
func (d *Document) Body() (*Body, error) {
	if d.body == nil {
		return nil, ErrEmptyDocument
	}
	return d.body, nil
}

// Modified reports whether any paragraph has had its runs replaced
func (d *Document) Modified() bool {
	if d.body == nil {
		return false
	}
	for _, p := range d.body.Paragraphs {
		if p.replaced {
			return true
		}
	}
	return false
}

// Bytes serializes the document. Without modifications the source bytes are
// returned unchanged.
func (d *Document) Bytes() []byte {
	if !d.Modified() {
		return cloneBytes(d.raw)
	}

	var buf bytes.Buffer
	buf.Grow(len(d.raw) + 256)
	prev := 0
	for _, p := range d.body.Paragraphs {
		if !p.replaced {
			continue
		}
		buf.Write(d.raw[prev:p.start])
		p.writeTo(&buf)
		prev = p.end
	}
	buf.Write(d.raw[prev:])
	return buf.Bytes()
}

func (p *Paragraph) writeTo(buf *bytes.Buffer) {
	raw := p.doc.raw
	if p.closeAt < 0 {
		// <w:p .../> has no content to keep; open it up for the new runs
		open := bytes.TrimRight(raw[p.start:p.end-2], " \t\r\n")
		buf.Write(open)
		buf.WriteByte('>')
		p.writeRuns(buf)
		buf.WriteString("</" + p.doc.qualified("p") + ">")
		return
	}

	pos := p.start
	for _, r := range p.original {
		buf.Write(raw[pos:r.start])
		pos = r.end
	}
	buf.Write(raw[pos:p.closeAt])
	p.writeRuns(buf)
	buf.Write(raw[p.closeAt:p.end])
}

func (p *Paragraph) writeRuns(buf *bytes.Buffer) {
	for _, r := range p.runs {
		if r.src == p.doc && r.start >= 0 {
			buf.Write(p.doc.raw[r.start:r.end])
			continue
		}
		p.doc.writeRun(buf, r)
	}
}

func (d *Document) writeRun(buf *bytes.Buffer, r *Run) {
	buf.WriteString("<" + d.qualified("r") + ">")
	buf.Write(r.properties)
	if r.text != "" {
		buf.WriteString("<" + d.qualified("t") + ` xml:space="preserve">`)
		// EscapeText only fails when the writer does
		_ = xml.EscapeText(buf, []byte(r.text))
		buf.WriteString("</" + d.qualified("t") + ">")
	}
	buf.WriteString("</" + d.qualified("r") + ">")
}

func (d *Document) qualified(local string) string {
	if d.prefix == "" {
		return local
	}
	return d.prefix + ":" + local
}

// scanner walks the raw token stream and records element offsets.
type scanner struct {
	doc *Document
	dec *xml.Decoder

	depth     int
	bodyDepth int
	// skipDepth marks a nested paragraph whose content is opaque
	skipDepth int

	para      *Paragraph
	paraDepth int
	pPrStart  int

	run       *Run
	runDepth  int
	runText   strings.Builder
	rPrStart  int
	textDepth int
}

func (s *scanner) scan() error {
	for {
		off := int(s.dec.InputOffset())
		tok, err := s.dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("malformed document XML: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			s.depth++
			s.start(t, off)
		case xml.EndElement:
			if s.depth == 0 {
				return fmt.Errorf("malformed document XML: unexpected </%s>", t.Name.Local)
			}
			s.finish(t, off, int(s.dec.InputOffset()))
			s.depth--
		case xml.CharData:
			if s.textDepth > 0 && s.skipDepth == 0 {
				s.runText.Write(t)
			}
		}
	}
	if s.depth != 0 {
		return fmt.Errorf("malformed document XML: %d unclosed elements", s.depth)
	}
	return nil
}

func (s *scanner) start(t xml.StartElement, off int) {
	if s.depth == 1 {
		s.doc.prefix = wordPrefix(t)
		return
	}
	if s.skipDepth > 0 {
		return
	}

	switch {
	case s.is(t.Name, "body") && s.depth == 2:
		s.bodyDepth = s.depth
		s.doc.body = &Body{}
	case s.bodyDepth == 0:
		// outside the body
	case s.is(t.Name, "p"):
		if s.para != nil {
			s.skipDepth = s.depth
			return
		}
		s.para = &Paragraph{doc: s.doc, start: off}
		s.paraDepth = s.depth
	case s.para == nil:
		// body-level content between paragraphs
	case s.is(t.Name, "pPr") && s.depth == s.paraDepth+1:
		s.pPrStart = off
	case s.is(t.Name, "r") && s.run == nil:
		s.run = &Run{src: s.doc, start: off}
		s.runDepth = s.depth
		s.runText.Reset()
	case s.run == nil:
	case s.is(t.Name, "rPr") && s.depth == s.runDepth+1:
		s.rPrStart = off
	case s.is(t.Name, "t") && s.textDepth == 0:
		s.textDepth = s.depth
	}
}

func (s *scanner) finish(t xml.EndElement, off, end int) {
	if s.skipDepth > 0 {
		if s.depth == s.skipDepth {
			s.skipDepth = 0
		}
		return
	}

	switch {
	case s.bodyDepth > 0 && s.depth == s.bodyDepth:
		s.bodyDepth = 0
	case s.para == nil:
	case s.depth == s.paraDepth:
		s.para.end = end
		s.para.closeAt = off
		if off == end {
			s.para.closeAt = -1
		}
		s.para.runs = s.para.original
		s.doc.body.Paragraphs = append(s.doc.body.Paragraphs, s.para)
		s.para = nil
	case s.is(t.Name, "pPr") && s.depth == s.paraDepth+1:
		s.para.properties = s.doc.raw[s.pPrStart:end]
	case s.run == nil:
	case s.depth == s.runDepth:
		s.run.end = end
		s.run.text = s.runText.String()
		s.para.original = append(s.para.original, s.run)
		s.run = nil
	case s.is(t.Name, "rPr") && s.depth == s.runDepth+1:
		s.run.properties = s.doc.raw[s.rPrStart:end]
	case s.depth == s.textDepth:
		s.textDepth = 0
	}
}

func (s *scanner) is(name xml.Name, local string) bool {
	return name.Space == s.doc.prefix && name.Local == local
}

// wordPrefix finds the prefix bound to the WordprocessingML namespace on the
// root element, defaulting to "w".
func wordPrefix(root xml.StartElement) string {
	for _, attr := range root.Attr {
		if attr.Value != wordMLNamespace && attr.Value != strictWordMLNamespace {
			continue
		}
		if attr.Name.Space == "xmlns" {
			return attr.Name.Local
		}
		if attr.Name.Space == "" && attr.Name.Local == "xmlns" {
			return ""
		}
	}
	return "w"
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
