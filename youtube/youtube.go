package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

var ErrInvalidURL = errors.New("youtube: no video id in url")

var idPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtube\.com/embed/|youtu\.be/|youtube\.com/v/|youtube\.com/shorts/)([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`^([a-zA-Z0-9_-]{11})$`),
}

// ExtractID returns the 11 character video id from a watch, embed, short
// or youtu.be link, or from a bare id.
func ExtractID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	for _, re := range idPatterns {
		if m := re.FindStringSubmatch(raw); m != nil {
			return m[1], nil
		}
	}
	return "", ErrInvalidURL
}

type ThumbnailQuality string

const (
	QualityDefault ThumbnailQuality = "default"
	QualityMedium  ThumbnailQuality = "mqdefault"
	QualityHigh    ThumbnailQuality = "hqdefault"
	QualityMax     ThumbnailQuality = "maxresdefault"
)

func ThumbnailURL(videoID string, quality ThumbnailQuality) string {
	if quality == "" {
		quality = QualityMedium
	}
	return fmt.Sprintf("https://img.youtube.com/vi/%s/%s.jpg", videoID, quality)
}

// WatchURL returns the canonical watch link for a video id.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// OEmbed is the part of the oEmbed response used to autofill songs.
type OEmbed struct {
	Title      string `json:"title"`
	AuthorName string `json:"author_name"`
}

// Client looks up public video details through the oEmbed endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

const DefaultOEmbedURL = "https://www.youtube.com/oembed"

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultOEmbedURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

// Lookup fetches title and channel name for a video id.
func (c *Client) Lookup(ctx context.Context, videoID string) (*OEmbed, error) {
	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse oembed url: %w", err)
	}
	params := url.Values{}
	params.Set("url", WatchURL(videoID))
	params.Set("format", "json")
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oembed returned %d", resp.StatusCode)
	}
	var payload OEmbed
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode oembed response: %w", err)
	}
	return &payload, nil
}

// NormalizeTitle lowercases s and keeps only ASCII letters, digits and
// Latin-1 accented letters, so near-identical titles compare equal.
func NormalizeTitle(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r >= 0xE0 && r <= 0xFF:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SimilarTitles reports whether two titles are equal after normalization, or
// one contains the other when the contained one is longer than five characters.
func SimilarTitles(a, b string) bool {
	na, nb := NormalizeTitle(a), NormalizeTitle(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	return (len([]rune(na)) > 5 && strings.Contains(nb, na)) ||
		(len([]rune(nb)) > 5 && strings.Contains(na, nb))
}
