// Package reconcile merges source records that describe the same book,
// deduplicates them by ISBN and assigns canonical ids.
package reconcile

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/lehigh-university-libraries/bookmerge/internal/isbn"
	"github.com/lehigh-university-libraries/bookmerge/internal/normalize"
	"github.com/lehigh-university-libraries/bookmerge/internal/source"
)

// TimestampFormat is the layout of ts_last_update and _ingestion_ts.
const TimestampFormat = time.RFC3339Nano

const hashIDLength = 16

// Prefilter keeps the records that have both a title and a usable ISBN-13.
// It returns the kept records and the number dropped.
func Prefilter(records []source.Record) ([]source.Record, int) {
	kept := make([]source.Record, 0, len(records))
	for i := range records {
		if Eligible(&records[i]) {
			kept = append(kept, records[i])
		}
	}
	return kept, len(records) - len(kept)
}

// Eligible reports whether a record survives the pre-filter.
func Eligible(r *source.Record) bool {
	return r.Title != nil && isbn.Usable(r.ISBN13)
}

// Key returns the dedup key of a record: ISBN-13 if usable, else ISBN-10,
// else nil.
func Key(r *source.Record) *string {
	if isbn.Usable(r.ISBN13) {
		return r.ISBN13
	}
	if isbn.Usable(r.ISBN10) {
		return r.ISBN10
	}
	return nil
}

// group holds the records of both sources that share a key. Records without
// a key each get a group of their own.
type group struct {
	key    *string
	scrape []*source.Record
	api    []*source.Record
}

// Reconcile merges records into canonical books. Records are expected to be
// pre-filtered; the input order decides which record of a source represents
// a group (the first one).
func Reconcile(records []source.Record) *Result {
	groups := groupRecords(records)

	candidates := make([]Book, 0, len(groups))
	for _, g := range groups {
		var scrape, api *source.Record
		if len(g.scrape) > 0 {
			scrape = g.scrape[0]
		}
		if len(g.api) > 0 {
			api = g.api[0]
		}
		candidates = append(candidates, Merge(scrape, api))
	}

	books := Deduplicate(candidates)

	result := &Result{
		Groups:     len(groups),
		Candidates: len(candidates),
	}
	seen := make(map[string]struct{}, len(books))
	for _, b := range books {
		b.BookID = AssignID(&b)
		if _, dup := seen[b.BookID]; dup {
			slog.Warn("Dropping canonical book with duplicate id", "book_id", b.BookID, "title", deref(b.Title))
			result.Collisions++
			continue
		}
		seen[b.BookID] = struct{}{}
		result.Books = append(result.Books, b)
	}

	slog.Debug("Reconciled records",
		"records", len(records),
		"groups", result.Groups,
		"candidates", result.Candidates,
		"books", len(result.Books),
		"collisions", result.Collisions)

	return result
}

func groupRecords(records []source.Record) []*group {
	var groups []*group
	byKey := make(map[string]*group)

	for i := range records {
		r := &records[i]
		key := Key(r)

		var g *group
		if key == nil {
			g = &group{}
			groups = append(groups, g)
		} else if existing, ok := byKey[*key]; ok {
			g = existing
		} else {
			g = &group{key: key}
			byKey[*key] = g
			groups = append(groups, g)
		}

		if r.Source == source.Scrape {
			g.scrape = append(g.scrape, r)
		} else {
			g.api = append(g.api, r)
		}
	}

	return groups
}

// Merge builds one canonical candidate from the scrape record and the API
// record of a group; either may be nil. Every attribute prefers the scrape
// value and falls back to the API value.
func Merge(scrape, api *source.Record) Book {
	var s, a source.Record
	if scrape != nil {
		s = *scrape
	}
	if api != nil {
		a = *api
	}

	b := Book{
		Title:      choose(s.Title, a.Title),
		Authors:    chooseList(s.Authors, a.Authors),
		Publisher:  choose(s.Publisher, a.Publisher),
		ISBN10:     chooseISBN(s.ISBN10, a.ISBN10),
		ISBN13:     chooseISBN(s.ISBN13, a.ISBN13),
		Categories: chooseList(s.Categories, a.Categories),
	}
	b.TitleNormalized = normalize.Text(b.Title)
	b.AuthorPrincipal = normalize.PrincipalAuthor(b.Authors)

	var degraded []string
	iso, year, badDate := normalize.Date(choose(s.PubDate, a.PubDate))
	b.PubDateISO, b.YearPub = iso, year
	if badDate {
		degraded = append(degraded, FlagInvalidDate)
	}
	lang, badLang := normalize.Language(choose(s.Language, a.Language))
	b.LanguageBCP = lang
	if badLang {
		degraded = append(degraded, FlagInvalidLanguage)
	}
	cur, badCur := normalize.Currency(choose(s.PriceCurrency, a.PriceCurrency))
	b.CurrencyISO = cur
	if badCur {
		degraded = append(degraded, FlagInvalidCurrency)
	}
	// A present but malformed scrape price wins over the API price, like
	// the other attributes; it degrades to absent.
	priced := a
	if s.PriceAmount != nil || s.PriceInvalid {
		priced = s
	}
	b.Price = priced.PriceAmount
	if priced.PriceInvalid {
		degraded = append(degraded, FlagInvalidPrice)
	}

	b.ISBN13Valid = isbn.Valid13Ptr(b.ISBN13)
	switch {
	case b.ISBN13 != nil && !b.ISBN13Valid:
		b.ValidationFlag = FlagInvalidISBN
	case len(degraded) > 0:
		b.ValidationFlag = degraded[0]
	default:
		b.ValidationFlag = FlagValid
	}

	// Provenance names the scrape source whenever the group has a scrape
	// record, even when individual fields came from the API record.
	if scrape != nil {
		b.FuenteGanadora = string(source.Scrape)
	} else {
		b.FuenteGanadora = string(source.API)
	}

	b.UpdatedAt = latest(s.IngestedAt, a.IngestedAt)
	b.TSLastUpdate = b.UpdatedAt.UTC().Format(TimestampFormat)

	return b
}

// Deduplicate keeps one candidate per dedup key using pickBest. Output is
// ordered by dedup key; key-less candidates follow in input order.
func Deduplicate(candidates []Book) []Book {
	byKey := make(map[string][]Book)
	var keys []string
	var keyless []Book

	for _, c := range candidates {
		key := c.DedupKey()
		if key == nil {
			keyless = append(keyless, c)
			continue
		}
		if _, ok := byKey[*key]; !ok {
			keys = append(keys, *key)
		}
		byKey[*key] = append(byKey[*key], c)
	}

	sort.Strings(keys)
	out := make([]Book, 0, len(keys)+len(keyless))
	for _, k := range keys {
		out = append(out, pickBest(byKey[k]))
	}
	return append(out, keyless...)
}

// pickBest orders candidates by ingestion time and returns the latest one
// that won from the API source and carries an ISBN-10; without such a
// candidate, the latest candidate overall.
func pickBest(candidates []Book) Book {
	ordered := make([]Book, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].UpdatedAt.Before(ordered[j].UpdatedAt)
	})

	for i := len(ordered) - 1; i >= 0; i-- {
		if ordered[i].FuenteGanadora == string(source.API) && ordered[i].ISBN10 != nil {
			return ordered[i]
		}
	}
	return ordered[len(ordered)-1]
}

// AssignID returns the canonical id of a merged book: the ISBN-10 when the
// API source won, else the ISBN-13, else a hash of the descriptive fields.
func AssignID(b *Book) string {
	if b.ISBN10 != nil && b.FuenteGanadora == string(source.API) {
		return *b.ISBN10
	}
	if b.ISBN13 != nil {
		return *b.ISBN13
	}
	return HashID(deref(b.Title), deref(b.AuthorPrincipal), deref(b.Publisher), deref(b.PubDateISO))
}

// HashID is the deterministic fallback id for books without an ISBN.
func HashID(title, author, publisher, isoDate string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s_%s_%s_%s", title, author, publisher, isoDate)))
	return hex.EncodeToString(sum[:])[:hashIDLength]
}

func choose[T any](preferred, fallback *T) *T {
	if preferred != nil {
		return preferred
	}
	return fallback
}

// chooseISBN skips values that cannot serve as a key, such as the
// enrichment placeholder.
func chooseISBN(preferred, fallback *string) *string {
	if isbn.Usable(preferred) {
		return preferred
	}
	if isbn.Usable(fallback) {
		return fallback
	}
	return nil
}

func chooseList(preferred, fallback []string) []string {
	if len(preferred) > 0 {
		return preferred
	}
	if len(fallback) > 0 {
		return fallback
	}
	return []string{}
}

func latest(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
