package stencil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjaminschreck/go-coverletter/internal/testutil"
)

func adaSubstitutions(t testing.TB) *SubstitutionMap {
	t.Helper()
	m, err := NewSubstitutionMap(
		Substitution{Token: TokenJobSource, Value: "LinkedIn"},
		Substitution{Token: TokenCompanyName, Value: "Acme"},
		Substitution{Token: TokenFirstName, Value: "Ada"},
		Substitution{Token: TokenLastName, Value: "Lovelace"},
	)
	require.NoError(t, err)
	return m
}

func TestRewriteParagraph(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		rewritten bool
		text      string
		props     []byte
	}{
		{
			name:      "split token collapses to first run formatting",
			body:      testutil.Paragraph(testutil.Run("<w:b/>", "Dear {FIRST "), testutil.Run("<w:i/>", "NAME}")),
			rewritten: true,
			text:      "Dear Ada",
			props:     []byte("<w:rPr><w:b/></w:rPr>"),
		},
		{
			name:      "unformatted first run",
			body:      testutil.Paragraph(testutil.Run("", "{COMPANY NAME}"), testutil.Run("<w:b/>", "!")),
			rewritten: true,
			text:      "Acme!",
		},
		{
			name:      "paragraph without tokens is untouched",
			body:      testutil.Paragraph(testutil.Run("<w:b/>", "Regards"), testutil.Run("", " {UNKNOWN}")),
			rewritten: false,
			text:      "Regards {UNKNOWN}",
			props:     []byte("<w:rPr><w:b/></w:rPr>"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := parseBody(t, tt.body).Paragraphs[0]
			before := len(p.Runs())

			assert.Equal(t, tt.rewritten, RewriteParagraph(p, adaSubstitutions(t)))
			assert.Equal(t, tt.text, ExtractText(p))
			assert.Equal(t, tt.rewritten, p.Modified())

			runs := p.Runs()
			if tt.rewritten {
				require.Len(t, runs, 1)
			} else {
				require.Len(t, runs, before)
			}
			assert.Equal(t, tt.props, runs[0].Properties())
		})
	}
}

func TestRewriteBody(t *testing.T) {
	body := parseBody(t, testutil.TextParagraphs(
		"Found on {JOB SOURCE}",
		"Nothing here",
		"{FIRST NAME} {LAST NAME}",
	))

	assert.Equal(t, 2, RewriteBody(body, adaSubstitutions(t)))
	assert.Equal(t, "Found on LinkedIn\nNothing here\nAda Lovelace", BodyText(body))
	assert.False(t, body.Paragraphs[1].Modified())

	assert.Equal(t, 0, RewriteBody(nil, adaSubstitutions(t)))
	assert.False(t, RewriteParagraph(nil, adaSubstitutions(t)))
}
