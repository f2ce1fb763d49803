package fetcher

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/partials/header.html", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<header>Site</header>"))
	})
	mux.HandleFunc("/partials/created.html", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("<p>new</p>"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch_HTTP(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name    string
		base    string
		locator string
		want    string
	}{
		{
			name:    "absolute URL",
			base:    "",
			locator: srv.URL + "/partials/header.html",
			want:    "<header>Site</header>",
		},
		{
			name:    "relative to base URL",
			base:    srv.URL + "/pages/index.html",
			locator: "../partials/header.html",
			want:    "<header>Site</header>",
		},
		{
			name:    "root-relative to base URL",
			base:    srv.URL + "/pages/",
			locator: "/partials/header.html",
			want:    "<header>Site</header>",
		},
		{
			name:    "any 2xx status is success",
			base:    srv.URL + "/",
			locator: "partials/created.html",
			want:    "<p>new</p>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := New(tt.base)
			require.NoError(t, err)

			got, err := f.Fetch(tt.locator)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFetch_NotFound(t *testing.T) {
	srv := newTestServer(t)
	f, err := New(srv.URL + "/")
	require.NoError(t, err)

	_, err = f.Fetch("partials/missing.html")
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr), "want *StatusError, got %T", err)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, "partials/missing.html", statusErr.Locator)
	assert.Contains(t, err.Error(), "404")
}

func TestFetch_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	f, err := New(addr + "/")
	require.NoError(t, err)

	_, err = f.Fetch("partials/header.html")
	require.Error(t, err)

	var statusErr *StatusError
	assert.False(t, errors.As(err, &statusErr))
}

func TestFetch_Filesystem(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "site/partials/nav.html", []byte("<nav>menu</nav>\n"), 0644))

	f, err := New("site", WithFs(fs))
	require.NoError(t, err)

	got, err := f.Fetch("partials/nav.html")
	require.NoError(t, err)
	assert.Equal(t, "<nav>menu</nav>\n", got)

	got, err = f.Fetch("/partials/nav.html")
	require.NoError(t, err)
	assert.Equal(t, "<nav>menu</nav>\n", got)

	_, err = f.Fetch("partials/missing.html")
	assert.Error(t, err)
}

func TestFetch_FileScheme(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/srv/footer.html", []byte("<footer>f</footer>"), 0644))

	f, err := New("", WithFs(fs))
	require.NoError(t, err)

	got, err := f.Fetch("file:///srv/footer.html")
	require.NoError(t, err)
	assert.Equal(t, "<footer>f</footer>", got)
}
