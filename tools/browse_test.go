package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/lexcodex/autoloop/framework"
)

const testPage = `<html><head><title>Recipes</title><style>p{}</style></head>
<body><h1>Soup</h1><script>var x = 1;</script>
<p>Boil   water.  Add salt.</p>
<a href="https://example.com/more">  More
  recipes </a>
<a href="/relative">skip</a>
</body></html>`

func TestSanitizeURL(t *testing.T) {
	got, err := SanitizeURL("https://example.com/a/b?q=1#frag")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a/b", got)

	_, err = SanitizeURL("file:///etc/passwd")
	assert.ErrorIs(t, err, errLocalAccess)
	_, err = SanitizeURL("http://localhost:8080")
	assert.ErrorIs(t, err, errLocalAccess)
	_, err = SanitizeURL("ftp://example.com")
	assert.ErrorIs(t, err, errInvalidURL)
}

func TestPageTextAndLinks(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(testPage))
	require.NoError(t, err)
	assert.Equal(t, "Recipes\nSoup\nBoil\nwater.\nAdd salt.\nMore\nrecipes\nskip", PageText(doc))
	assert.Equal(t, []string{"More recipes (https://example.com/more)"}, PageLinks(doc))
}

func TestSplitText(t *testing.T) {
	assert.Equal(t, []string{"aaa\nbb", "cccc"}, SplitText("aaa\nbb\ncccc", 8))
	assert.Equal(t, []string{"toolongline"}, SplitText("toolongline", 4))
}

type summaryChat struct {
	questions []string
}

func (s *summaryChat) open(ctx context.Context) (framework.ChatBackend, error) { return s, nil }

func (s *summaryChat) Ask(ctx context.Context, q string) (string, error) {
	s.questions = append(s.questions, q)
	return fmt.Sprintf("summary %d", len(s.questions)), nil
}

func (s *summaryChat) Close() error { return nil }

func TestBrowseWebsite(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		assert.Empty(t, r.URL.RawQuery)
		fmt.Fprint(w, testPage)
	}))
	defer srv.Close()

	chat := &summaryChat{}
	cmd := &BrowseCommand{Client: srv.Client(), Opener: chat.open}
	out, err := cmd.Execute(context.Background(), map[string]any{"url": srv.URL + "/page?x=1", "question": "how to make soup"})
	require.NoError(t, err)
	assert.Equal(t, "Website Content Summary: summary 1\n\nLinks: [\"More recipes (https://example.com/more)\"]", out)
	require.Len(t, chat.questions, 1)
	assert.Contains(t, chat.questions[0], "Boil")
	assert.Contains(t, chat.questions[0], `answer the following question: "how to make soup"`)

	_, err = cmd.Execute(context.Background(), map[string]any{"url": srv.URL + "/missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
}

func TestBrowseWebsiteChunksAndCombines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<p>first paragraph</p><p>second paragraph</p>")
	}))
	defer srv.Close()

	chat := &summaryChat{}
	cmd := &BrowseCommand{Client: srv.Client(), Opener: chat.open, ChunkSize: 20}
	out, err := cmd.Execute(context.Background(), map[string]any{"url": srv.URL})
	require.NoError(t, err)
	assert.Len(t, chat.questions, 3)
	assert.Contains(t, chat.questions[2], "summary 1\nsummary 2")
	assert.True(t, strings.HasPrefix(out, "Website Content Summary: summary 3"))
}
