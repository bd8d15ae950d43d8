// Package moviedb is a small client for a TMDB compatible movie metadata
// API plus the list filters applied to its results.
package moviedb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// DefaultBaseURL is the public TMDB v3 endpoint.
const DefaultBaseURL = "https://api.themoviedb.org/3"

// ErrNotFound is returned when the API has no movie with the given id.
var ErrNotFound = errors.New("movie not found")

// APIError is any other non-2xx answer.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("moviedb: unexpected status %d", e.Status)
	}
	return fmt.Sprintf("moviedb: status %d: %s", e.Status, e.Message)
}

// Client calls the metadata API.  It is safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New returns a Client.  An empty baseURL selects DefaultBaseURL.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// Details fetches a movie with its credits and videos.
func (c *Client) Details(ctx context.Context, id int64) (model.MovieDetails, error) {
	var out model.MovieDetails
	q := url.Values{"append_to_response": {"credits,videos"}}
	err := c.get(ctx, "/movie/"+strconv.FormatInt(id, 10), q, &out)
	return out, err
}

// Popular fetches one page of the popular movies list.
func (c *Client) Popular(ctx context.Context, page int) (model.MoviePage, error) {
	var out model.MoviePage
	err := c.get(ctx, "/movie/popular", url.Values{"page": {strconv.Itoa(max(page, 1))}}, &out)
	return out, err
}

// Search finds movies by title.
func (c *Client) Search(ctx context.Context, query string, page int) (model.MoviePage, error) {
	var out model.MoviePage
	q := url.Values{"query": {query}, "page": {strconv.Itoa(max(page, 1))}}
	err := c.get(ctx, "/search/movie", q, &out)
	return out, err
}

// get performs a GET request and decodes the JSON answer into out.
func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	if c.apiKey != "" {
		q.Set("api_key", c.apiKey)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("moviedb: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("moviedb: read %s: %w", path, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode/100 != 2 {
		var apiErr struct {
			StatusMessage string `json:"status_message"`
		}
		_ = json.Unmarshal(body, &apiErr)
		return &APIError{Status: resp.StatusCode, Message: apiErr.StatusMessage}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("moviedb: decode %s: %w", path, err)
	}
	return nil
}
