package html

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser extracts readable text from HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic MIME normaliser, higher than plaintext
}

// Normalise converts an HTML document to plain text, one block per line.
// The <title>, when present, is recorded in metadata.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	text, title, err := extract(raw.Content)
	if err != nil {
		return nil, err
	}

	doc := domain.Document{
		Content:  text,
		Metadata: copyMetadata(raw.Metadata),
	}
	doc.Metadata["mime_type"] = raw.MIMEType
	doc.Metadata["format"] = "html"
	if title != "" {
		doc.Metadata["title"] = title
	}

	return &driven.NormaliseResult{Document: doc}, nil
}

// skipped elements contribute no text.
var skipped = map[atom.Atom]bool{
	atom.Head:     true,
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Svg:      true,
	atom.Template: true,
	atom.Iframe:   true,
}

// blocks start and end on their own line.
var blocks = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Section: true, atom.Article: true,
	atom.Header: true, atom.Footer: true, atom.Main: true, atom.Nav: true, atom.Aside: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Ul: true, atom.Ol: true, atom.Li: true, atom.Dl: true, atom.Dt: true, atom.Dd: true,
	atom.Table: true, atom.Tr: true, atom.Blockquote: true, atom.Pre: true,
	atom.Figure: true, atom.Figcaption: true,
}

// extract walks the token stream and returns the visible text and the title.
func extract(content []byte) (text, title string, err error) {
	z := html.NewTokenizer(bytes.NewReader(bytes.ToValidUTF8(content, []byte("\uFFFD"))))

	var (
		out       strings.Builder
		titleText strings.Builder
		skip      int
		inTitle   bool
		haveTitle bool
	)

	for {
		switch z.Next() {
		case html.ErrorToken:
			if zerr := z.Err(); !errors.Is(zerr, io.EOF) {
				return "", "", zerr
			}
			return tidy(out.String()), strings.Join(strings.Fields(titleText.String()), " "), nil

		case html.TextToken:
			switch {
			case inTitle:
				titleText.Write(z.Text())
			case skip == 0:
				out.Write(z.Text())
			}

		case html.StartTagToken:
			tok := z.Token()
			switch {
			case tok.DataAtom == atom.Title && !haveTitle:
				inTitle = true
			case skipped[tok.DataAtom]:
				skip++
			case tok.DataAtom == atom.Br || tok.DataAtom == atom.Hr || blocks[tok.DataAtom]:
				out.WriteByte('\n')
			}

		case html.SelfClosingTagToken:
			tok := z.Token()
			if tok.DataAtom == atom.Br || tok.DataAtom == atom.Hr {
				out.WriteByte('\n')
			}

		case html.EndTagToken:
			tok := z.Token()
			switch {
			case tok.DataAtom == atom.Title && inTitle:
				inTitle = false
				haveTitle = true
			case skipped[tok.DataAtom]:
				if skip > 0 {
					skip--
				}
			case blocks[tok.DataAtom]:
				out.WriteByte('\n')
			case tok.DataAtom == atom.Td || tok.DataAtom == atom.Th:
				out.WriteByte(' ')
			}

		case html.CommentToken, html.DoctypeToken:
		}
	}
}

// tidy collapses whitespace within lines and drops blank lines.
func tidy(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func copyMetadata(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src)+3)
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
