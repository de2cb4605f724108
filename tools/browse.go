package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/lexcodex/autoloop/framework"
)

var (
	errLocalAccess = errors.New("access to local files is restricted")
	errInvalidURL  = errors.New("invalid URL format")

	whitespacePattern = regexp.MustCompile(`\s+`)
)

const (
	defaultUserAgent = "Mozilla/5.0 (compatible; autoloop/1.0)"
	defaultChunkSize = 8192
	defaultMaxLinks  = 5
	maxPageBytes     = 2 << 20
)

var localPrefixes = []string{"file:///", "file://localhost", "http://localhost", "https://localhost"}

// BrowseCommand fetches a page, summarises its text against a question on
// throwaway chat sessions and lists the first links.
type BrowseCommand struct {
	Client    *http.Client
	Opener    framework.Opener
	UserAgent string
	// ChunkSize bounds the text sent per summary request.
	ChunkSize int
	MaxLinks  int
	Timeout   time.Duration
}

func (c *BrowseCommand) Name() string        { return "browse_website" }
func (c *BrowseCommand) Description() string { return "Browse Website" }
func (c *BrowseCommand) Parameters() []framework.CommandParameter {
	return []framework.CommandParameter{
		{Name: "url", Type: "string", Required: true},
		{Name: "question", Type: "string", Description: "what you want to find on the website"},
	}
}
func (c *BrowseCommand) Execute(ctx context.Context, args map[string]any) (string, error) {
	raw, err := stringArg(args, "url")
	if err != nil {
		return "", err
	}
	question := optionalArg(args, "question", "")
	doc, err := c.fetch(ctx, raw)
	if err != nil {
		return "", err
	}
	text := PageText(doc)
	summary, err := c.summarize(ctx, text, question)
	if err != nil {
		return "", err
	}
	links := PageLinks(doc)
	limit := c.MaxLinks
	if limit <= 0 {
		limit = defaultMaxLinks
	}
	if len(links) > limit {
		links = links[:limit]
	}
	return fmt.Sprintf("Website Content Summary: %s\n\nLinks: %s", summary, framework.Stringify(links)), nil
}

// SanitizeURL validates a model supplied URL and drops its query and fragment.
func SanitizeURL(raw string) (string, error) {
	for _, prefix := range localPrefixes {
		if strings.HasPrefix(raw, prefix) {
			return "", errLocalAccess
		}
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return "", errInvalidURL
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", errInvalidURL
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

func (c *BrowseCommand) fetch(ctx context.Context, raw string) (*html.Node, error) {
	target, err := SanitizeURL(raw)
	if err != nil {
		return nil, err
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	agent := c.UserAgent
	if agent == "" {
		agent = defaultUserAgent
	}
	req.Header.Set("User-Agent", agent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d error", resp.StatusCode)
	}
	return html.Parse(io.LimitReader(resp.Body, maxPageBytes))
}

func (c *BrowseCommand) summarize(ctx context.Context, text, question string) (string, error) {
	if text == "" {
		return "", errors.New("no text to summarize")
	}
	size := c.ChunkSize
	if size <= 0 {
		size = defaultChunkSize
	}
	chunks := SplitText(text, size)
	if c.Opener == nil {
		return chunks[0], nil
	}
	summaries := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		summary, err := c.ask(ctx, chunk, question)
		if err != nil {
			return "", err
		}
		summaries = append(summaries, summary)
	}
	if len(summaries) == 1 {
		return summaries[0], nil
	}
	return c.ask(ctx, strings.Join(summaries, "\n"), question)
}

func (c *BrowseCommand) ask(ctx context.Context, chunk, question string) (string, error) {
	msg := fmt.Sprintf("\"\"\"\n%s\n\"\"\"\n\nUsing the above text, answer the following question: %q. If the question cannot be answered using the text, summarize the text.", chunk, question)
	return framework.AskMessages(ctx, c.Opener, []framework.Turn{framework.NewTurn(framework.RoleUser, msg)})
}

// PageText returns the visible text of doc, one trimmed phrase per line.
func PageText(doc *html.Node) string {
	var sb strings.Builder
	collectText(doc, &sb)
	var lines []string
	for _, line := range strings.Split(sb.String(), "\n") {
		for _, phrase := range strings.Split(strings.TrimSpace(line), "  ") {
			if phrase = strings.TrimSpace(phrase); phrase != "" {
				lines = append(lines, phrase)
			}
		}
	}
	return strings.Join(lines, "\n")
}

func collectText(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript":
			return
		case "br", "p", "div", "li", "tr", "h1", "h2", "h3", "h4", "h5", "h6", "title":
			defer sb.WriteString("\n")
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, sb)
	}
}

// PageLinks lists absolute links in doc as "text (href)".
func PageLinks(doc *html.Node) []string {
	links := []string{}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style":
				return
			case "a":
				href := attr(n, "href")
				if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
					var sb strings.Builder
					collectText(n, &sb)
					text := whitespacePattern.ReplaceAllString(strings.TrimSpace(sb.String()), " ")
					links = append(links, fmt.Sprintf("%s (%s)", text, href))
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return links
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// SplitText groups lines into chunks of at most size bytes. A single longer
// line becomes its own chunk.
func SplitText(text string, size int) []string {
	var chunks []string
	var current []string
	length := 0
	for _, line := range strings.Split(text, "\n") {
		if length+len(line)+1 <= size || len(current) == 0 {
			current = append(current, line)
			length += len(line) + 1
			continue
		}
		chunks = append(chunks, strings.Join(current, "\n"))
		current = []string{line}
		length = len(line) + 1
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, "\n"))
	}
	return chunks
}
