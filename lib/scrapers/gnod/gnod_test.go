package gnod

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/clessn/scrapessn/lib/closeness"
	"github.com/clessn/scrapessn/lib/telemetry"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func fixtureServer(t *testing.T, hits *atomic.Int64) *httptest.Server {
	contents, err := os.ReadFile("testdata/the_beatles.html")
	require.Nil(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write(contents)
	}))
	t.Cleanup(server.Close)
	return server
}

func openTestCache(t *testing.T) *badger.DB {
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLogger(nil))
	require.Nil(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestScrapeSubject(t *testing.T) {
	defer telemetry.SetupForTesting("test:scrapers/gnod")()
	ctx := context.Background()

	var hits atomic.Int64
	server := fixtureServer(t, &hits)

	client, err := NewClient(ctx, ClientOptions{
		BaseUrl:       server.URL,
		Cache:         openTestCache(t),
		CacheLifetime: time.Hour,
	})
	require.Nil(t, err)

	page, err := client.ScrapeSubject(ctx, "the+beatles")
	require.Nil(t, err)

	require.Equal(t, "the_beatles", page.Subject)
	require.Equal(t, 3, len(page.Items))
	require.Equal(t, 9, page.Table.Len())

	score, ok := page.Table.Lookup("the_beatles", "the_beatles")
	require.True(t, ok)
	require.Equal(t, closeness.Known(100), score)

	// the -1 placeholder must come through as unknown, never as -1
	score, ok = page.Table.Lookup("the_kinks", "simon_garfunkel")
	require.True(t, ok)
	require.False(t, score.Known)

	// a second scrape should be served from the page cache
	_, err = client.ScrapeSubject(ctx, "the+beatles")
	require.Nil(t, err)
	require.Equal(t, int64(1), hits.Load())
}

func TestScrapeSubjectWithoutCache(t *testing.T) {
	ctx := context.Background()

	var hits atomic.Int64
	server := fixtureServer(t, &hits)

	client, err := NewClient(ctx, ClientOptions{BaseUrl: server.URL})
	require.Nil(t, err)

	_, err = client.ScrapeSubject(ctx, "the+beatles")
	require.Nil(t, err)
	_, err = client.ScrapeSubject(ctx, "the+beatles")
	require.Nil(t, err)
	require.Equal(t, int64(2), hits.Load())
}

func TestScrapeSubjectBadStatus(t *testing.T) {
	ctx := context.Background()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(ctx, ClientOptions{BaseUrl: server.URL})
	require.Nil(t, err)

	_, err = client.ScrapeSubject(ctx, "the+beatles")
	require.True(t, errors.Is(err, ErrFetch), "got: %v", err)
}

func TestScrapeSubjectUnreachableHost(t *testing.T) {
	ctx := context.Background()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client, err := NewClient(ctx, ClientOptions{BaseUrl: url})
	require.Nil(t, err)

	_, err = client.ScrapeSubject(ctx, "the+beatles")
	require.True(t, errors.Is(err, ErrFetch), "got: %v", err)
}

func TestScrapeSubjectStructuralMismatch(t *testing.T) {
	ctx := context.Background()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p>We are rebuilding the map, check back soon.</p></body></html>`))
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(ctx, ClientOptions{BaseUrl: server.URL})
	require.Nil(t, err)

	_, err = client.ScrapeSubject(ctx, "the+beatles")
	require.True(t, errors.Is(err, ErrStructuralMismatch), "got: %v", err)
}

func TestExtractCloseness(t *testing.T) {
	doc := loadFixture(t)

	page, err := ExtractCloseness(context.Background(), doc, "the+beatles")
	require.Nil(t, err)
	require.Equal(t, "the_beatles", page.Subject)
	require.Equal(t, 9, page.Table.Len())

	// directed edges: both orders are present independently
	ab, ok := page.Table.Lookup("the_beatles", "the_kinks")
	require.True(t, ok)
	ba, ok := page.Table.Lookup("the_kinks", "the_beatles")
	require.True(t, ok)
	require.Equal(t, ab, ba)
}
