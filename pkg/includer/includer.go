// Package includer splices externally stored HTML fragments into a document
// in place of elements carrying a data-include attribute.
package includer

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/sync/errgroup"
)

// MarkerAttr marks a placeholder element; its value is the fragment locator.
const MarkerAttr = "data-include"

// Fetcher returns the raw fragment text behind a locator.
type Fetcher interface {
	Fetch(locator string) (string, error)
}

// FetchFunc adapts a function to the Fetcher interface.
type FetchFunc func(locator string) (string, error)

func (f FetchFunc) Fetch(locator string) (string, error) {
	return f(locator)
}

// Outcome is the result for a single placeholder. A nil Err means the
// placeholder was replaced by Nodes top-level nodes; otherwise it was removed.
type Outcome struct {
	Index   int
	Locator string
	Nodes   int
	Err     error
}

func (o Outcome) Spliced() bool {
	return o.Err == nil
}

// Includer runs a single discovery pass over a page and resolves every
// placeholder it finds.
type Includer struct {
	fetcher Fetcher
	logger  *slog.Logger
	ready   *Ready
	once    sync.Once

	// treeMu serializes mutations of the shared node tree.
	treeMu sync.Mutex

	mu       sync.Mutex
	outcomes []Outcome
}

func New(f Fetcher, logger *slog.Logger) *Includer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Includer{
		fetcher: f,
		logger:  logger,
		ready:   newReady(),
	}
}

// Ready returns the readiness handle. It is the same handle Activate returns.
func (inc *Includer) Ready() *Ready {
	return inc.ready
}

// Activate starts discovery and returns without waiting for any fragment.
// If page is still loading, discovery is deferred until it has been parsed.
// Only the first call scans the page; later calls return the same handle.
func (inc *Includer) Activate(page *Page) *Ready {
	inc.once.Do(func() {
		if page.Loading() {
			go func() {
				<-page.Parsed()
				inc.includeAll(inc.discover(page.Document()))
			}()
			return
		}

		placeholders := inc.discover(page.Document())
		if len(placeholders) == 0 {
			inc.ready.complete()
			return
		}
		go inc.includeAll(placeholders)
	})
	return inc.ready
}

// Outcomes returns per-placeholder results in document order. The slice is
// complete only once the readiness handle is done.
func (inc *Includer) Outcomes() []Outcome {
	inc.mu.Lock()
	defer inc.mu.Unlock()

	out := make([]Outcome, len(inc.outcomes))
	copy(out, inc.outcomes)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Index < out[j].Index
	})
	return out
}

func (inc *Includer) discover(doc *goquery.Document) []*html.Node {
	sel := doc.Find("[" + MarkerAttr + "]")
	placeholders := make([]*html.Node, len(sel.Nodes))
	copy(placeholders, sel.Nodes)
	inc.logger.Debug("Discovered placeholders", "count", len(placeholders))
	return placeholders
}

func (inc *Includer) includeAll(placeholders []*html.Node) {
	defer inc.ready.complete()
	if len(placeholders) == 0 {
		return
	}

	// Every task returns nil: a failed include never cancels or fails the group.
	var g errgroup.Group
	for i, el := range placeholders {
		locator := attr(el, MarkerAttr)
		g.Go(func() error {
			inc.record(inc.load(i, el, locator))
			return nil
		})
	}
	_ = g.Wait()
	inc.logger.Debug("All includes resolved", "count", len(placeholders))
}

func (inc *Includer) load(index int, el *html.Node, locator string) Outcome {
	out := Outcome{Index: index, Locator: locator}
	out.Nodes, out.Err = inc.resolve(el, locator)
	if out.Err != nil {
		inc.logger.Error("Error loading include", "path", locator, "error", out.Err)
		inc.remove(el)
		return out
	}
	inc.logger.Debug("Include spliced", "path", locator, "nodes", out.Nodes)
	return out
}

func (inc *Includer) resolve(el *html.Node, locator string) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while including %s: %v", locator, r)
		}
	}()

	text, err := inc.fetcher.Fetch(locator)
	if err != nil {
		return 0, err
	}
	return inc.splice(el, text)
}

// splice replaces el with the top-level nodes parsed from text.
func (inc *Includer) splice(el *html.Node, text string) (int, error) {
	inc.treeMu.Lock()
	defer inc.treeMu.Unlock()

	parent := el.Parent
	if parent == nil {
		return 0, errors.New("placeholder is no longer attached")
	}

	nodes, err := html.ParseFragment(strings.NewReader(strings.TrimSpace(text)), fragmentContext(parent))
	if err != nil {
		return 0, fmt.Errorf("failed to parse fragment: %w", err)
	}

	for _, n := range nodes {
		parent.InsertBefore(n, el)
	}
	parent.RemoveChild(el)
	return len(nodes), nil
}

func (inc *Includer) remove(el *html.Node) {
	inc.treeMu.Lock()
	defer inc.treeMu.Unlock()

	if el.Parent != nil {
		el.Parent.RemoveChild(el)
	}
}

func (inc *Includer) record(out Outcome) {
	inc.mu.Lock()
	defer inc.mu.Unlock()
	inc.outcomes = append(inc.outcomes, out)
}

// fragmentContext picks the element a fragment is parsed as children of.
func fragmentContext(parent *html.Node) *html.Node {
	if parent.Type == html.ElementNode {
		return parent
	}
	return &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
