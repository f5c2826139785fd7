package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
)

const (
	webUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_7_2) AppleWebKit/537.36"
	maxRedirects = 5
)

// validateURL checks that url is http(s) with a valid domain.
func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("only http/https allowed, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing domain in URL")
	}
	return nil
}

// WebFetchTool fetches a URL and extracts readable content. It is the only
// built-in tool; everything else comes from tool servers.
type WebFetchTool struct {
	maxChars   int
	httpClient *http.Client
}

// NewWebFetchTool creates a WebFetchTool. maxChars defaults to 50000.
func NewWebFetchTool(maxChars int) *WebFetchTool {
	if maxChars <= 0 {
		maxChars = 50000
	}
	client := &http.Client{
		Timeout: 30 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
	return &WebFetchTool{maxChars: maxChars, httpClient: client}
}

func (t *WebFetchTool) Name() string { return "web_fetch" }
func (t *WebFetchTool) Description() string {
	return "Fetch URL and extract readable content (HTML → markdown/text)."
}
func (t *WebFetchTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"url": {
				"type": "string",
				"description": "URL to fetch"
			},
			"extractMode": {
				"type": "string",
				"enum": ["markdown", "text"],
				"default": "markdown"
			},
			"maxChars": {
				"type": "integer",
				"minimum": 100
			}
		},
		"required": ["url"]
	}`)
}

func (t *WebFetchTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	rawURL, _ := params["url"].(string)
	if rawURL == "" {
		return "", fmt.Errorf("url is required")
	}
	if err := validateURL(rawURL); err != nil {
		return "", fmt.Errorf("URL validation failed: %w", err)
	}

	extractMode := "markdown"
	if m, ok := params["extractMode"].(string); ok && m != "" {
		extractMode = m
	}
	maxChars := t.maxChars
	if mc, ok := params["maxChars"]; ok {
		switch v := mc.(type) {
		case float64:
			maxChars = int(v)
		case int:
			maxChars = v
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", webUserAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	ctype := resp.Header.Get("Content-Type")
	finalURL := resp.Request.URL.String()

	var text, extractor string

	switch {
	case strings.Contains(ctype, "application/json"):
		var jsonData any
		if err := json.Unmarshal(bodyBytes, &jsonData); err == nil {
			formatted, _ := json.MarshalIndent(jsonData, "", "  ")
			text = string(formatted)
		} else {
			text = string(bodyBytes)
		}
		extractor = "json"

	case strings.Contains(ctype, "text/html") || isHTMLPrefix(bodyBytes):
		parsedURL, _ := url.Parse(rawURL)
		article, err := readability.FromReader(bytes.NewReader(bodyBytes), parsedURL)
		if err == nil {
			if extractMode == "markdown" {
				text = htmlToMarkdown(article.Content)
			} else {
				text = stripHTMLTags(article.Content)
			}
			if article.Title != "" {
				text = "# " + article.Title + "\n\n" + text
			}
		} else {
			text = stripHTMLTags(string(bodyBytes))
		}
		extractor = "readability"

	default:
		text = string(bodyBytes)
		extractor = "raw"
	}

	truncated := len(text) > maxChars
	if truncated {
		text = text[:maxChars]
	}

	out, _ := json.Marshal(map[string]any{
		"url":       rawURL,
		"finalUrl":  finalURL,
		"status":    resp.StatusCode,
		"extractor": extractor,
		"truncated": truncated,
		"length":    len(text),
		"text":      text,
	})
	return string(out), nil
}

// isHTMLPrefix returns true if the body starts with an HTML declaration.
func isHTMLPrefix(b []byte) bool {
	prefix := strings.ToLower(strings.TrimSpace(string(b[:min(256, len(b))])))
	return strings.HasPrefix(prefix, "<!doctype") || strings.HasPrefix(prefix, "<html")
}

// ---------------------------------------------------------------------------
// HTML → text/markdown helpers
// ---------------------------------------------------------------------------

var (
	reScript    = regexp.MustCompile(`(?is)<script[\s\S]*?</script>`)
	reStyle     = regexp.MustCompile(`(?is)<style[\s\S]*?</style>`)
	reTags      = regexp.MustCompile(`<[^>]+>`)
	reSpaces    = regexp.MustCompile(`[ \t]+`)
	reNewlines  = regexp.MustCompile(`\n{3,}`)
	reLinks     = regexp.MustCompile(`(?is)<a\s+[^>]*href=["']([^"']+)["'][^>]*>([\s\S]*?)</a>`)
	reHeadings  = regexp.MustCompile(`(?is)<h([1-6])[^>]*>([\s\S]*?)</h[1-6]>`)
	reListItems = regexp.MustCompile(`(?is)<li[^>]*>([\s\S]*?)</li>`)
	reBlockEnd  = regexp.MustCompile(`(?is)</(p|div|section|article)>`)
	reLineBreak = regexp.MustCompile(`(?is)<(br|hr)\s*/?>`)
)

// stripHTMLTags removes all HTML tags and normalizes whitespace.
func stripHTMLTags(text string) string {
	text = reScript.ReplaceAllString(text, "")
	text = reStyle.ReplaceAllString(text, "")
	text = reTags.ReplaceAllString(text, "")
	text = reSpaces.ReplaceAllString(text, " ")
	text = reNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// htmlToMarkdown converts HTML to a simple markdown representation.
func htmlToMarkdown(htmlText string) string {
	text := reLinks.ReplaceAllStringFunc(htmlText, func(m string) string {
		parts := reLinks.FindStringSubmatch(m)
		if len(parts) < 3 {
			return m
		}
		return fmt.Sprintf("[%s](%s)", stripHTMLTags(parts[2]), parts[1])
	})
	text = reHeadings.ReplaceAllStringFunc(text, func(m string) string {
		parts := reHeadings.FindStringSubmatch(m)
		if len(parts) < 3 {
			return m
		}
		level := int(parts[1][0] - '0')
		hashes := strings.Repeat("#", level)
		return fmt.Sprintf("\n%s %s\n", hashes, stripHTMLTags(parts[2]))
	})
	text = reListItems.ReplaceAllStringFunc(text, func(m string) string {
		parts := reListItems.FindStringSubmatch(m)
		if len(parts) < 2 {
			return m
		}
		return "\n- " + stripHTMLTags(parts[1])
	})
	text = reBlockEnd.ReplaceAllString(text, "\n\n")
	text = reLineBreak.ReplaceAllString(text, "\n")
	return normalizeWhitespace(stripHTMLTags(text))
}

func normalizeWhitespace(text string) string {
	text = reSpaces.ReplaceAllString(text, " ")
	text = reNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
