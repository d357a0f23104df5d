package stencil

import (
	"github.com/benjaminschreck/go-coverletter/pkg/stencil/docx"
)

// RewriteParagraph substitutes placeholders across the paragraph's runs.
//
// Placeholders may be split over runs, so matching is done on the joined
// text. A paragraph containing any token is collapsed into a single run that
// keeps the formatting of its first run; per-run formatting variation inside
// that paragraph is lost. Paragraphs without tokens are left untouched and
// the function reports false.
func RewriteParagraph(p *docx.Paragraph, subs *SubstitutionMap) bool {
	if p == nil || subs == nil {
		return false
	}

	text, ok := subs.Apply(ExtractText(p))
	if !ok {
		return false
	}

	var props []byte
	if runs := p.Runs(); len(runs) > 0 {
		props = runs[0].Properties()
	}
	p.SetRuns(docx.NewRun(props, text))
	return true
}

// RewriteBody rewrites every paragraph of the body and returns how many
// paragraphs changed.
func RewriteBody(body *docx.Body, subs *SubstitutionMap) int {
	if body == nil {
		return 0
	}
	count := 0
	for _, p := range body.Paragraphs {
		if RewriteParagraph(p, subs) {
			count++
		}
	}
	return count
}
