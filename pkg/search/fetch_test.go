package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"oreza-assistant-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<html><head><title>記事</title><style>body{}</style></head>
<body>
<header>サイトヘッダー</header>
<nav>メニュー</nav>
<main>
  <h1>見出し</h1>
  <p>  本文の一行目  </p>
  <script>var x = 1;</script>
  <p>本文の二行目</p>
</main>
<footer>著作権</footer>
</body></html>`

func TestFetchTextStripsChrome(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(0, logger.NewNopLogger())
	text, err := f.FetchText(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Equal(t, "記事\n見出し\n本文の一行目\n本文の二行目", text)
}

func TestFetchTextCapsLength(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<p>" + strings.Repeat("あ", 50) + "</p>"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(10, logger.NewNopLogger())
	text, err := f.FetchText(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("あ", 10)+"...", text)
}

func TestFetchTextHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	f := NewHTTPFetcher(0, logger.NewNopLogger())
	_, err := f.FetchText(context.Background(), srv.URL)

	assert.ErrorIs(t, err, ErrFetchFailed)
}
