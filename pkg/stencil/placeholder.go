package stencil

import (
	"strings"

	"github.com/benjaminschreck/go-coverletter/pkg/stencil/docx"
)

// Placeholder tokens have the literal form {NAME}.
const (
	TokenOpen  = "{"
	TokenClose = "}"
)

// Fixed placeholder tokens of a cover letter template.
const (
	TokenJobSource   = "{JOB SOURCE}"
	TokenCompanyName = "{COMPANY NAME}"
	TokenFirstName   = "{FIRST NAME}"
	TokenLastName    = "{LAST NAME}"
	// TokenJobTitle is substituted when present but never required.
	TokenJobTitle = "{JOB TITLE}"
)

// RequiredTokens returns the placeholders every template must contain.
func RequiredTokens() []string {
	return []string{TokenJobSource, TokenCompanyName, TokenFirstName, TokenLastName}
}

// ExtractText concatenates the text of every run in the paragraph. Run
// boundaries are irrelevant to placeholder matching; this is the only text
// surface it looks at.
func ExtractText(p *docx.Paragraph) string {
	if p == nil {
		return ""
	}
	var sb strings.Builder
	for _, r := range p.Runs() {
		sb.WriteString(r.Text())
	}
	return sb.String()
}

// BodyText returns the text of all paragraphs, one per line.
func BodyText(body *docx.Body) string {
	if body == nil {
		return ""
	}
	texts := make([]string, len(body.Paragraphs))
	for i, p := range body.Paragraphs {
		texts[i] = ExtractText(p)
	}
	return strings.Join(texts, "\n")
}

// ContainsAll reports whether every token occurs in bodyText as a literal,
// case-sensitive substring. Empty text contains nothing.
func ContainsAll(bodyText string, tokens []string) bool {
	return len(MissingTokens(bodyText, tokens)) == 0
}

// MissingTokens returns the tokens absent from bodyText, in the order given.
func MissingTokens(bodyText string, tokens []string) []string {
	var missing []string
	for _, token := range tokens {
		if bodyText == "" || !strings.Contains(bodyText, token) {
			missing = append(missing, token)
		}
	}
	return missing
}

// Scan returns the distinct placeholder tokens in the body, in order of
// first appearance. A token is an opening brace, a non-empty name without
// braces or line breaks, and a closing brace.
func Scan(body *docx.Body) []string {
	if body == nil {
		return nil
	}

	seen := make(map[string]bool)
	var tokens []string
	for _, p := range body.Paragraphs {
		for _, token := range scanText(ExtractText(p)) {
			if !seen[token] {
				seen[token] = true
				tokens = append(tokens, token)
			}
		}
	}
	return tokens
}

func scanText(text string) []string {
	var tokens []string
	for {
		open := strings.Index(text, TokenOpen)
		if open < 0 {
			return tokens
		}
		rest := text[open+len(TokenOpen):]
		end := strings.IndexAny(rest, TokenOpen+TokenClose+"\n")
		if end < 0 {
			return tokens
		}
		if end > 0 && strings.HasPrefix(rest[end:], TokenClose) {
			tokens = append(tokens, text[open:open+len(TokenOpen)+end+len(TokenClose)])
			text = rest[end+len(TokenClose):]
			continue
		}
		// restart at the next brace or line break
		text = rest[end:]
		if strings.HasPrefix(text, TokenClose) || strings.HasPrefix(text, "\n") {
			text = text[1:]
		}
	}
}
