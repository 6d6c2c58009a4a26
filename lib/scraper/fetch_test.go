package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func servePage(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchPageFlatRecord(t *testing.T) {
	scraper, _ := newTestScraper(t)
	srv := servePage(t, `<html><head>
		<script type="application/ld+json">{"productID": "123456", "name": "Corduroy Jacket", "image": "https://images.example.com/jacket.jpg"}</script>
	</head></html>`)

	page, err := scraper.fetchPage(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "123456", page.ProductID)
	assert.Equal(t, "Corduroy Jacket", page.Name)
	assert.Equal(t, "https://images.example.com/jacket.jpg", page.ImageURL)
}

func TestFetchPageNumericProductID(t *testing.T) {
	scraper, _ := newTestScraper(t)
	srv := servePage(t, `<html><head>
		<script type="application/ld+json">{"productID": 123456, "name": "Corduroy Jacket"}</script>
	</head></html>`)

	page, err := scraper.fetchPage(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "123456", page.ProductID)
}

func TestFetchPageGraphWrappedRecord(t *testing.T) {
	scraper, _ := newTestScraper(t)
	srv := servePage(t, `<html><head>
		<script type="application/ld+json">{"@graph": [{"productID": "98765", "name": "Wool Coat", "image": ["https://images.example.com/coat-1.jpg", "https://images.example.com/coat-2.jpg"]}]}</script>
	</head></html>`)

	page, err := scraper.fetchPage(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "98765", page.ProductID)
	assert.Equal(t, "Wool Coat", page.Name)
	assert.Equal(t, "https://images.example.com/coat-1.jpg", page.ImageURL)
}

func TestFetchPageMissingScriptTag(t *testing.T) {
	scraper, _ := newTestScraper(t)
	srv := servePage(t, `<html><head><title>Not a product page</title></head></html>`)

	_, err := scraper.fetchPage(context.Background(), srv.URL)

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, srv.URL, parseErr.URL)
}

func TestFetchPageMalformedJSON(t *testing.T) {
	scraper, _ := newTestScraper(t)
	srv := servePage(t, `<html><head>
		<script type="application/ld+json">{not json at all</script>
	</head></html>`)

	_, err := scraper.fetchPage(context.Background(), srv.URL)
	assert.True(t, errors.As(err, new(*ParseError)))
}

func TestFetchPageMissingProductID(t *testing.T) {
	scraper, _ := newTestScraper(t)
	srv := servePage(t, `<html><head>
		<script type="application/ld+json">{"name": "Mystery Item"}</script>
	</head></html>`)

	_, err := scraper.fetchPage(context.Background(), srv.URL)
	assert.True(t, errors.As(err, new(*ParseError)))
}

func TestFetchPageNetworkFailure(t *testing.T) {
	scraper, _ := newTestScraper(t)

	_, err := scraper.fetchPage(context.Background(), "http://127.0.0.1:1/unreachable")

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.False(t, errors.As(err, new(*ParseError)))
}
