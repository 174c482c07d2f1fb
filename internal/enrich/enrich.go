// Package enrich extracts a human-readable headline from an arbitrary
// third-party URL. It is strictly best-effort: every failure path (network
// error, timeout, missing tag, byte budget exhausted) yields an empty string
// and never an error, so a slow or broken source can never stall a batch.
package enrich

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/calebmi254/Safety-and-Security-management-system/internal/util"
)

const (
	defaultTimeout    = 3 * time.Second
	defaultByteBudget = 10_000
	userAgent         = "Mozilla/5.0 (SecureX Intelligence Platform)"
)

var titleRe = regexp.MustCompile(`(?i)<title>([^<]*)</title>`)

// Client fetches headlines with a hard timeout and a byte budget. The zero
// budget/timeout fall back to the defaults above.
type Client struct {
	http       *http.Client
	byteBudget int
}

func New(timeout time.Duration, byteBudget int) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if byteBudget <= 0 {
		byteBudget = defaultByteBudget
	}
	return &Client{
		http:       util.NewHTTPClient(timeout),
		byteBudget: byteBudget,
	}
}

// Headline fetches url and scans at most the byte budget of the body for a
// <title> tag. It returns the cleaned-up inner text, or "" when anything at
// all goes wrong.
func (c *Client) Headline(ctx context.Context, url string) string {
	if url == "" {
		return ""
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	// Read incrementally; stop as soon as the closing tag shows up or the
	// budget is spent. The page beyond that point is never downloaded.
	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 1024)
	for {
		n, err := resp.Body.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			if len(buf) > c.byteBudget || strings.Contains(strings.ToLower(string(buf)), "</title>") {
				break
			}
		}
		if err != nil {
			break
		}
	}
	return CleanTitle(string(buf))
}

// CleanTitle pulls the <title> inner text out of an HTML fragment, decodes
// the handful of entities sites actually emit there, and strips the common
// "| Site Name" / "- Site Name" suffix pattern.
func CleanTitle(htmlChunk string) string {
	m := titleRe.FindStringSubmatch(htmlChunk)
	if m == nil {
		return ""
	}
	title := strings.TrimSpace(m[1])
	title = strings.ReplaceAll(title, "&amp;", "&")
	title = strings.ReplaceAll(title, "&quot;", `"`)
	title = strings.ReplaceAll(title, "&#39;", "'")
	if i := strings.Index(title, "|"); i >= 0 {
		title = title[:i]
	}
	if i := strings.Index(title, "-"); i >= 0 {
		title = title[:i]
	}
	return strings.TrimSpace(title)
}
