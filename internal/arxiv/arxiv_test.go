package arxiv

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2401.00001v1</id>
    <title>Attention Is
      All You Need   Revisited</title>
    <summary>  We revisit the
      attention mechanism.  </summary>
    <published>2024-01-15T09:30:00Z</published>
    <author><name>Ada Lovelace</name></author>
    <author><name>  Alan Turing </name></author>
    <link href="http://arxiv.org/abs/2401.00001v1" rel="alternate" type="text/html"/>
    <link href="http://arxiv.org/pdf/2401.00001v1" rel="related" title="pdf" type="application/pdf"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2401.00002v1</id>
    <title>   </title>
    <summary>Entry with no usable title is dropped.</summary>
    <published>2024-01-16T00:00:00Z</published>
  </entry>
</feed>`

func testClient(baseURL string) *Client {
	return NewClient(WithBaseURL(baseURL), WithMinInterval(time.Millisecond))
}

func TestSearchParsesFeed(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("search_query")
		w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	papers, err := testClient(srv.URL).Search(context.Background(), "attention mechanisms", 3)
	require.NoError(t, err)

	assert.Equal(t, "all:attention mechanisms", gotQuery)
	require.Len(t, papers, 1, "titleless entries are dropped")

	p := papers[0]
	assert.Equal(t, "Attention Is All You Need Revisited", p.Title)
	assert.Equal(t, "We revisit the attention mechanism.", p.Summary)
	assert.Equal(t, []string{"Ada Lovelace", "Alan Turing"}, p.Authors)
	assert.Equal(t, "http://arxiv.org/abs/2401.00001v1", p.EntryID)
	assert.Equal(t, "http://arxiv.org/pdf/2401.00001v1", p.PDFURL)
	assert.Equal(t, time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC), p.Published)
}

func TestSearchEmptyFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<?xml version="1.0"?><feed xmlns="http://www.w3.org/2005/Atom"></feed>`))
	}))
	defer srv.Close()

	papers, err := testClient(srv.URL).Search(context.Background(), "nothing", 3)
	require.NoError(t, err)
	assert.Empty(t, papers)
}

func TestSearchRetriesTransientRejection(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	papers, err := testClient(srv.URL).Search(context.Background(), "topic", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, papers, 1)
}

func TestSearchGivesUpAfterMaxRetries(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Search(context.Background(), "topic", 1)
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestSearchHardFailureNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Search(context.Background(), "topic", 1)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryDelay(t *testing.T) {
	assert.Equal(t, 7*time.Second, retryDelay("7", 1))
	assert.Equal(t, 2*time.Second, retryDelay("", 1))
	assert.Equal(t, 4*time.Second, retryDelay("garbage", 2))
}

func TestPDFLinkSelection(t *testing.T) {
	entry := atomEntry{Links: []atomLink{
		{Href: "http://arxiv.org/abs/1", Rel: "alternate", Type: "text/html"},
		{Href: "http://arxiv.org/pdf/1", Type: "application/pdf"},
	}}
	assert.Equal(t, "http://arxiv.org/pdf/1", entry.pdfLink())

	assert.Empty(t, atomEntry{}.pdfLink())
}
