package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	contentTypesPart = "[Content_Types].xml"
	packageRelsPart  = "_rels/.rels"
	// DefaultDocumentPart is used when the package relationships do not name one
	DefaultDocumentPart = "word/document.xml"

	officeDocumentRelType       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	strictOfficeDocumentRelType = "http://purl.oclc.org/ooxml/officeDocument/relationships/officeDocument"
)

// file system calls Save depends on; tests replace them to force failures
var (
	createTemp = os.CreateTemp
	syncFile   = (*os.File).Sync
	reopenFile = os.OpenFile
)

// Mode selects how a package file is opened and locked
type Mode int

const (
	// ReadOnly takes a shared lock; Save is refused.
	ReadOnly Mode = iota
	// ReadWrite takes an exclusive lock and allows Save.
	ReadWrite
)

func (m Mode) String() string {
	if m == ReadWrite {
		return "read-write"
	}
	return "read-only"
}

// part is a single ZIP entry held in memory
type part struct {
	header zip.FileHeader
	data   []byte
}

// Relationship represents a relationship in the package
type Relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr,omitempty"`
}

// Relationships represents the collection of relationships
type Relationships struct {
	XMLName      xml.Name       `xml:"Relationships"`
	Relationship []Relationship `xml:"Relationship"`
}

// Package is an open word-processing package. It holds the file handle and an
// advisory lock for its whole lifetime; Close must always be called.
type Package struct {
	path     string
	mode     Mode
	file     *os.File
	parts    []*part
	index    map[string]int
	mainPart string
	doc      *Document
	closed   bool
	lockErr  error
	mu       sync.Mutex
}

// Open opens the package at path. It fails with ErrLocked when another
// process holds a conflicting lock and with ErrNotAPackage when the file is
// not a ZIP container with a content-types part.
func Open(path string, mode Mode) (*Package, error) {
	flag := os.O_RDONLY
	if mode == ReadWrite {
		flag = os.O_RDWR
	}

	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		if isSharingViolation(err) {
			err = fmt.Errorf("%w: %v", ErrLocked, err)
		}
		return nil, newDocumentError("open", path, err)
	}

	if err := lockFile(f, mode == ReadWrite); err != nil {
		f.Close()
		return nil, newDocumentError("lock", path, err)
	}

	pkg := &Package{
		path:  path,
		mode:  mode,
		file:  f,
		index: make(map[string]int),
	}
	if err := pkg.load(); err != nil {
		pkg.release()
		return nil, newDocumentError("open", path, err)
	}
	return pkg, nil
}

func (p *Package) load() error {
	info, err := p.file.Stat()
	if err != nil {
		return err
	}

	zr, err := zip.NewReader(p.file, info.Size())
	if err != nil {
		return notAPackage(err)
	}

	for _, file := range zr.File {
		data, err := readZipFile(file)
		if err != nil {
			return notAPackage(err)
		}
		p.index[file.Name] = len(p.parts)
		p.parts = append(p.parts, &part{header: file.FileHeader, data: data})
	}

	if _, ok := p.index[contentTypesPart]; !ok {
		return notAPackage(fmt.Errorf("missing %s", contentTypesPart))
	}

	p.mainPart = p.resolveMainPart()
	return nil
}

func readZipFile(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", file.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file.Name, err)
	}
	return data, nil
}

// resolveMainPart follows the officeDocument relationship from _rels/.rels
func (p *Package) resolveMainPart() string {
	idx, ok := p.index[packageRelsPart]
	if !ok {
		return DefaultDocumentPart
	}

	var rels Relationships
	if err := xml.Unmarshal(p.parts[idx].data, &rels); err != nil {
		return DefaultDocumentPart
	}
	for _, rel := range rels.Relationship {
		if rel.Type == officeDocumentRelType || rel.Type == strictOfficeDocumentRelType {
			return strings.TrimPrefix(rel.Target, "/")
		}
	}
	return DefaultDocumentPart
}

// Path returns the file path the package was opened from
func (p *Package) Path() string {
	return p.path
}

// Mode returns the mode the package was opened with
func (p *Package) Mode() Mode {
	return p.mode
}

// MainPart returns the name of the primary document part
func (p *Package) MainPart() string {
	return p.mainPart
}

// ListParts returns the names of all parts in archive order
func (p *Package) ListParts() []string {
	names := make([]string, 0, len(p.parts))
	for _, pt := range p.parts {
		names = append(names, pt.header.Name)
	}
	return names
}

// Part returns a copy of a part's content
func (p *Package) Part(name string) ([]byte, error) {
	idx, ok := p.index[name]
	if !ok {
		return nil, fmt.Errorf("part %s not found", name)
	}
	return cloneBytes(p.parts[idx].data), nil
}

// Document returns the scanned primary part. It fails with ErrEmptyDocument
// when the primary part is missing.
func (p *Package) Document() (*Document, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.document()
}

func (p *Package) document() (*Document, error) {
	if p.closed {
		return nil, newDocumentError("read", p.path, ErrClosed)
	}
	if p.doc != nil {
		return p.doc, nil
	}

	idx, ok := p.index[p.mainPart]
	if !ok {
		return nil, newDocumentError("read", p.path, fmt.Errorf("%w: missing %s", ErrEmptyDocument, p.mainPart))
	}
	doc, err := ParseDocument(p.parts[idx].data)
	if err != nil {
		return nil, newDocumentError("read", p.path, notAPackage(err))
	}
	p.doc = doc
	return doc, nil
}

// Body returns the paragraphs of the primary part. A missing part or a part
// without a body fails with ErrEmptyDocument.
func (p *Package) Body() (*Body, error) {
	doc, err := p.Document()
	if err != nil {
		return nil, err
	}
	body, err := doc.Body()
	if err != nil {
		return nil, newDocumentError("read", p.path, err)
	}
	return body, nil
}

// Save writes the package back to its file. The new archive is written to a
// temporary file in the same directory and renamed over the original, so a
// failure at any point leaves the original file untouched.
//
// Paragraphs obtained before Save remain usable for reading; after a
// successful Save the next Body call rescans the written document.
func (p *Package) Save() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return newDocumentError("save", p.path, ErrClosed)
	}
	if p.mode != ReadWrite {
		return newDocumentError("save", p.path, ErrReadOnly)
	}

	var mainData []byte
	if p.doc != nil && p.doc.Modified() {
		mainData = p.doc.Bytes()
	}

	tmp, err := createTemp(filepath.Dir(p.path), "."+filepath.Base(p.path)+".*.tmp")
	if err != nil {
		return newDocumentError("save", p.path, err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if err := p.writeArchive(tmp, mainData); err != nil {
		return newDocumentError("save", p.path, err)
	}
	if err := syncFile(tmp); err != nil {
		return newDocumentError("save", p.path, err)
	}
	if err := tmp.Close(); err != nil {
		return newDocumentError("save", p.path, err)
	}

	if err := p.replaceWith(tmpPath); err != nil {
		return newDocumentError("save", p.path, err)
	}
	committed = true

	if mainData != nil {
		p.parts[p.index[p.mainPart]].data = mainData
		p.doc = nil
	}
	return nil
}

func (p *Package) writeArchive(w io.Writer, mainData []byte) error {
	zw := zip.NewWriter(w)
	for _, pt := range p.parts {
		data := pt.data
		if mainData != nil && pt.header.Name == p.mainPart {
			data = mainData
		}

		header := &zip.FileHeader{
			Name:     pt.header.Name,
			Comment:  pt.header.Comment,
			Method:   pt.header.Method,
			Modified: pt.header.Modified,
		}
		fw, err := zw.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", pt.header.Name, err)
		}
		if _, err := io.Copy(fw, bytes.NewReader(data)); err != nil {
			return fmt.Errorf("failed to write %s: %w", pt.header.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to close zip writer: %w", err)
	}
	return nil
}

// LockError reports why the lock could not be moved to the file written by
// the last Save. The saved content is complete; only the advisory lock is
// missing until Close.
func (p *Package) LockError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lockErr
}

// Close releases the lock and the file handle. It is safe to call more than
// once and after a failed Save.
func (p *Package) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	return p.release()
}

func (p *Package) release() error {
	p.closed = true
	p.doc = nil
	if p.file == nil {
		return nil
	}

	var errs []error
	if err := unlockFile(p.file); err != nil && !errors.Is(err, os.ErrClosed) {
		errs = append(errs, err)
	}
	if err := p.file.Close(); err != nil {
		errs = append(errs, err)
	}
	p.file = nil
	if len(errs) > 0 {
		return newDocumentError("close", p.path, errors.Join(errs...))
	}
	return nil
}
