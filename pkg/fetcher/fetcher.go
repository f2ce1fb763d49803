package fetcher

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// StatusError is returned when a fragment request completes with a non-2xx status.
type StatusError struct {
	Locator    string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("failed to load %s: %s", e.Locator, e.Status)
}

// Fetcher retrieves fragment text for a resource locator. Relative locators
// are resolved against base, which may be an http(s) URL or a directory.
type Fetcher struct {
	client  *http.Client
	fs      afero.Fs
	baseURL *url.URL
	baseDir string
}

type Option func(*Fetcher)

// WithClient overrides the HTTP client used for http(s) locators.
func WithClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithFs overrides the filesystem used for local locators.
func WithFs(fs afero.Fs) Option {
	return func(f *Fetcher) {
		f.fs = fs
	}
}

func New(base string, opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		client: &http.Client{},
		fs:     afero.NewOsFs(),
	}
	for _, opt := range opts {
		opt(f)
	}

	if isHTTP(base) {
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid base URL: %w", err)
		}
		f.baseURL = u
	} else {
		f.baseDir = base
	}
	return f, nil
}

// Fetch returns the fragment text behind locator.
func (f *Fetcher) Fetch(locator string) (string, error) {
	ref, err := url.Parse(locator)
	if err != nil {
		return "", fmt.Errorf("invalid locator %q: %w", locator, err)
	}

	switch {
	case ref.Scheme == "http" || ref.Scheme == "https":
		return f.get(locator, ref.String())
	case ref.Scheme == "file":
		return f.read(locator, ref.Path)
	case f.baseURL != nil:
		return f.get(locator, f.baseURL.ResolveReference(ref).String())
	default:
		return f.read(locator, filepath.Join(f.baseDir, filepath.FromSlash(ref.Path)))
	}
}

func (f *Fetcher) get(locator, target string) (string, error) {
	resp, err := f.client.Get(target)
	if err != nil {
		return "", fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{Locator: locator, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	return string(bodyBytes), nil
}

func (f *Fetcher) read(locator, path string) (string, error) {
	data, err := afero.ReadFile(f.fs, path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", locator, err)
	}
	return string(data), nil
}

func isHTTP(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
