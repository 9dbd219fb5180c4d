package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// DefaultSearchURL is the Unsplash API root.
const DefaultSearchURL = "https://api.unsplash.com"

// PerPage is the number of results requested per search page.
const PerPage = 20

// ErrSearchDisabled is returned when no API key is configured.
var ErrSearchDisabled = errors.New("image search is not configured")

// Result is one image search hit.
type Result struct {
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl"`
	Alt          string `json:"alt,omitempty"`
	Author       string `json:"author,omitempty"`
}

// Searcher queries an Unsplash-compatible photo search API.
type Searcher struct {
	BaseURL string
	Key     string
	Client  *http.Client
}

// NewSearcher returns a Searcher for the given access key. An empty key
// yields a Searcher whose Search always fails with ErrSearchDisabled.
func NewSearcher(baseURL, key string) *Searcher {
	if baseURL == "" {
		baseURL = DefaultSearchURL
	}
	return &Searcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Key:     key,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Search returns one page of results for query. Pages start at 1.
func (s *Searcher) Search(ctx context.Context, query string, page int) ([]Result, error) {
	if s.Key == "" {
		return nil, ErrSearchDisabled
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return []Result{}, nil
	}
	if page < 1 {
		page = 1
	}

	q := url.Values{}
	q.Set("query", query)
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(PerPage))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/search/photos?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Client-ID "+s.Key)
	req.Header.Set("Accept-Version", "v1")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image search: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(body, "errors.0").String()
		if msg == "" {
			msg = resp.Status
		}
		return nil, fmt.Errorf("image search: %s", msg)
	}
	return parseResults(body)
}

func parseResults(body []byte) ([]Result, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("image search: invalid response")
	}
	results := []Result{}
	gjson.GetBytes(body, "results").ForEach(func(_, hit gjson.Result) bool {
		full := hit.Get("urls.regular").String()
		if full == "" {
			return true
		}
		thumb := hit.Get("urls.thumb").String()
		if thumb == "" {
			thumb = full
		}
		results = append(results, Result{
			URL:          full,
			ThumbnailURL: thumb,
			Alt:          hit.Get("alt_description").String(),
			Author:       hit.Get("user.name").String(),
		})
		return true
	})
	return results, nil
}
