// Package googlebooks looks up scraped books in the Google Books volumes
// API and produces the API export consumed by the integration run.
package googlebooks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
	books "google.golang.org/api/books/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/lehigh-university-libraries/bookmerge/internal/isbn"
	"github.com/lehigh-university-libraries/bookmerge/internal/source"
)

// Config configures a Client.
type Config struct {
	APIKey        string
	UserAgent     string
	RateLimit     time.Duration
	RetryAttempts int
	RetryWait     time.Duration
}

// Client queries the volumes endpoint with retries and a request rate limit.
type Client struct {
	service  *books.Service
	limiter  *rate.Limiter
	attempts int
	wait     time.Duration
}

// New creates a Client. Extra options are appended after the ones derived
// from cfg, so tests can point the client at another endpoint.
func New(ctx context.Context, cfg Config, extra ...option.ClientOption) (*Client, error) {
	var opts []option.ClientOption
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	} else {
		opts = append(opts, option.WithoutAuthentication())
	}
	if cfg.UserAgent != "" {
		opts = append(opts, option.WithUserAgent(cfg.UserAgent))
	}
	opts = append(opts, extra...)

	service, err := books.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create books service: %w", err)
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Every(cfg.RateLimit)
	}
	attempts := cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	return &Client{
		service:  service,
		limiter:  rate.NewLimiter(limit, 1),
		attempts: attempts,
		wait:     cfg.RetryWait,
	}, nil
}

// Search runs one volumes query. Server errors and rate-limit responses are
// retried; other client errors fail immediately.
func (c *Client) Search(ctx context.Context, query string) ([]*books.Volume, error) {
	var volumes *books.Volumes
	attempt := 0

	op := func() error {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		res, err := c.service.Volumes.List(query).Context(ctx).Do()
		if err != nil {
			slog.Warn("Google Books request failed", "query", query, "attempt", attempt, "max_attempts", c.attempts, "error", err)
			if !retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		volumes = res
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.wait), uint64(c.attempts-1)),
		ctx,
	)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, fmt.Errorf("volumes query %q failed after %d attempts: %w", query, attempt, err)
	}

	return volumes.Items, nil
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500
	}
	return true
}

// Book is what the scrape knows about one book.
type Book struct {
	Title  string
	Author string
	ISBN   string
}

// Queries returns the lookups tried for b, most specific first.
func Queries(b Book) []Query {
	var queries []Query
	if b.ISBN != "" {
		queries = append(queries, Query{Q: "isbn:" + b.ISBN, Title: b.Title, Author: b.Author})
	}
	if b.Title != "" && b.Author != "" {
		queries = append(queries, Query{Q: fmt.Sprintf("intitle:%q+inauthor:%q", b.Title, b.Author), Title: b.Title, Author: b.Author})
	}
	if b.Title != "" {
		queries = append(queries, Query{Q: fmt.Sprintf("intitle:%q", b.Title), Title: b.Title})
	}
	return queries
}

// BooksFromTable lists the books of a scrape table. The ISBN-13 is
// preferred over the ISBN-10 as the lookup key.
func BooksFromTable(t *source.Table) []Book {
	list := make([]Book, 0, len(t.Rows))
	for _, row := range t.Rows {
		b := Book{Title: value(row.Get("title")), Author: value(row.Get("author"))}
		if id := row.Get("isbn13"); id != nil {
			b.ISBN = isbn.Clean(*id)
		} else if id := row.Get("isbn10"); id != nil {
			b.ISBN = isbn.Clean(*id)
		}
		list = append(list, b)
	}
	return list
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// Query is one volumes lookup and the hints used to pick among its results.
type Query struct {
	Q      string
	Title  string
	Author string
}

// Lookup tries each query for b until one returns a volume. A book nothing
// matched yields NotFound. Only context errors are returned; failed
// queries are logged and the next one is tried.
func (c *Client) Lookup(ctx context.Context, b Book) (Row, error) {
	for _, q := range Queries(b) {
		items, err := c.Search(ctx, q.Q)
		if err != nil {
			if ctx.Err() != nil {
				return Row{}, ctx.Err()
			}
			slog.Error("Giving up on query", "query", q.Q, "error", err)
			continue
		}
		if best := PickBest(items, q.Title, q.Author); best != nil {
			row := ParseVolume(best)
			row.QueryUsed = q.Q
			return row, nil
		}
	}
	return NotFound(), nil
}

// LookupAll looks up every book in order.
func (c *Client) LookupAll(ctx context.Context, list []Book) ([]Row, error) {
	rows := make([]Row, 0, len(list))
	found := 0
	for i, b := range list {
		slog.Info("Enriching book", "title", b.Title, "progress", fmt.Sprintf("%d/%d", i+1, len(list)))
		row, err := c.Lookup(ctx, b)
		if err != nil {
			return rows, err
		}
		if row.GBID != "" {
			found++
		}
		rows = append(rows, row)
	}
	slog.Info("Enrichment finished", "books", len(list), "found", found)
	return rows, nil
}

// PickBest chooses among the items of a response: the first whose title and
// authors contain title and author, then the first matching the title, then
// the first matching the author, then the first item. Matching is
// case-insensitive substring containment.
func PickBest(items []*books.Volume, title, author string) *books.Volume {
	if len(items) == 0 {
		return nil
	}
	title = strings.ToLower(title)
	author = strings.ToLower(author)

	matches := func(v *books.Volume, wantTitle, wantAuthor bool) bool {
		if v == nil || v.VolumeInfo == nil {
			return false
		}
		if wantTitle && !strings.Contains(strings.ToLower(v.VolumeInfo.Title), title) {
			return false
		}
		if wantAuthor && !strings.Contains(strings.ToLower(strings.Join(v.VolumeInfo.Authors, ";")), author) {
			return false
		}
		return true
	}

	if title != "" && author != "" {
		for _, v := range items {
			if matches(v, true, true) {
				return v
			}
		}
	}
	if title != "" {
		for _, v := range items {
			if matches(v, true, false) {
				return v
			}
		}
	}
	if author != "" {
		for _, v := range items {
			if matches(v, false, true) {
				return v
			}
		}
	}
	return items[0]
}
