package includer

import (
	"fmt"
	"io"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Page is a document together with its parse state.
type Page struct {
	doc    *goquery.Document
	err    error
	parsed chan struct{}
}

// NewPage wraps a document that has already been parsed.
func NewPage(doc *goquery.Document) *Page {
	p := &Page{doc: doc, parsed: make(chan struct{})}
	close(p.parsed)
	return p
}

// LoadPage parses r in the background. Until parsing finishes the page
// reports Loading. A page that fails to parse is empty.
func LoadPage(r io.Reader) *Page {
	p := &Page{parsed: make(chan struct{})}
	go func() {
		defer close(p.parsed)
		doc, err := goquery.NewDocumentFromReader(r)
		if err != nil {
			p.err = fmt.Errorf("failed to parse HTML: %w", err)
			p.doc = goquery.NewDocumentFromNode(&html.Node{Type: html.DocumentNode})
			return
		}
		p.doc = doc
	}()
	return p
}

// Loading reports whether the document is still being parsed.
func (p *Page) Loading() bool {
	select {
	case <-p.parsed:
		return false
	default:
		return true
	}
}

// Parsed is closed when the initial parse has finished.
func (p *Page) Parsed() <-chan struct{} {
	return p.parsed
}

// Err returns the parse error, if any. Only valid once Parsed is closed.
func (p *Page) Err() error {
	<-p.parsed
	return p.err
}

// Document blocks until the page is parsed and returns it.
func (p *Page) Document() *goquery.Document {
	<-p.parsed
	return p.doc
}

// Render writes the current tree as HTML.
func (p *Page) Render(w io.Writer) error {
	doc := p.Document()
	for _, n := range doc.Nodes {
		if err := html.Render(w, n); err != nil {
			return fmt.Errorf("failed to render HTML: %w", err)
		}
	}
	return nil
}
