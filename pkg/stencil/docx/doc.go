// Package docx opens, inspects and rewrites word-processing packages.
//
// A DOCX file is a ZIP archive of XML parts. The primary part (normally
// word/document.xml, located through the package relationships) holds the
// document body. This package reads the whole archive into memory, exposes the
// body as an ordered list of paragraphs made of runs, and writes the archive
// back when a paragraph has been rewritten.
//
// # Structure Organization
//
//   - package.go: Package lifecycle (Open, Body, Save, Close) and part handling
//   - document.go: the body scanner and the Body/Paragraph/Run tree
//   - errors.go: sentinel errors and DocumentError
//   - lock_*.go: OS-level advisory locking of the package file
//
// # Key Concepts
//
// Paragraph: a w:p element of the body, including paragraphs inside tables.
// Paragraphs nested inside another paragraph (text boxes) are treated as part
// of the outer paragraph's content and are not listed separately.
//
// Run: a w:r element. Its text is the concatenation of its w:t elements. Its
// formatting is the raw w:rPr element, kept as an opaque byte slice that is
// never parsed, only copied.
//
// Paragraphs whose run list has not been replaced are written back byte for
// byte. Only replaced paragraphs are re-serialized.
//
// # Usage
//
//	pkg, err := docx.Open("letter.docx", docx.ReadWrite)
//	if err != nil {
//	    return err
//	}
//	defer pkg.Close()
//
//	body, err := pkg.Body()
//	if err != nil {
//	    return err
//	}
//	for _, p := range body.Paragraphs {
//	    runs := p.Runs()
//	    if len(runs) > 0 {
//	        p.SetRuns(docx.NewRun(runs[0].Properties(), "replaced"))
//	    }
//	}
//	return pkg.Save()
package docx
