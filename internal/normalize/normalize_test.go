package normalize

import (
	"reflect"
	"testing"
)

func ptr(s string) *string { return &s }

func TestSplitList(t *testing.T) {
	tests := []struct {
		name     string
		input    *string
		sep      string
		expected []string
	}{
		{name: "nil scrape", input: nil, sep: "scrape", expected: []string{}},
		{name: "nil api", input: nil, sep: "api", expected: []string{}},
		{name: "empty scrape", input: ptr(""), sep: "scrape", expected: []string{}},
		{name: "empty api", input: ptr(""), sep: "api", expected: []string{}},
		{name: "single author", input: ptr("Frank Herbert"), sep: "scrape", expected: []string{"Frank Herbert"}},
		{name: "comma", input: ptr("Neil Gaiman, Terry Pratchett"), sep: "scrape", expected: []string{"Neil Gaiman", "Terry Pratchett"}},
		{name: "semicolon", input: ptr("Neil Gaiman; Terry Pratchett"), sep: "scrape", expected: []string{"Neil Gaiman", "Terry Pratchett"}},
		{name: "and word", input: ptr("Neil Gaiman and Terry Pratchett"), sep: "scrape", expected: []string{"Neil Gaiman", "Terry Pratchett"}},
		{name: "and inside name kept", input: ptr("Alexandra Grant"), sep: "scrape", expected: []string{"Alexandra Grant"}},
		{name: "drops empty tokens", input: ptr(" ; ,A,, B ;"), sep: "scrape", expected: []string{"A", "B"}},
		{name: "api semicolon", input: ptr("Hadley Wickham;Garrett Grolemund"), sep: "api", expected: []string{"Hadley Wickham", "Garrett Grolemund"}},
		{name: "api keeps commas", input: ptr("Computers, Data Science;Mathematics"), sep: "api", expected: []string{"Computers, Data Science", "Mathematics"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sep := ScrapeSeparator
			if tt.sep == "api" {
				sep = APISeparator
			}
			got := SplitList(tt.input, sep)
			if got == nil {
				t.Fatal("Expected non-nil slice")
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestPrincipalAuthor(t *testing.T) {
	if got := PrincipalAuthor(nil); got != nil {
		t.Errorf("Expected nil, got %q", *got)
	}
	if got := PrincipalAuthor([]string{}); got != nil {
		t.Errorf("Expected nil, got %q", *got)
	}
	got := PrincipalAuthor([]string{"Frank Herbert", "Brian Herbert"})
	if got == nil || *got != "Frank Herbert" {
		t.Errorf("Expected Frank Herbert, got %v", got)
	}
}

func TestText(t *testing.T) {
	if Text(nil) != nil {
		t.Error("Expected nil for nil input")
	}

	tests := map[string]string{
		"  Dune  ":                    "dune",
		"The   Left Hand\tof Darkness": "the left hand of darkness",
		"ÉCOLE":                       "école",
		"":                            "",
	}
	for input, expected := range tests {
		got := Text(ptr(input))
		if got == nil || *got != expected {
			t.Errorf("Text(%q) = %v, expected %q", input, got, expected)
		}
	}
}

func TestDate(t *testing.T) {
	tests := []struct {
		name         string
		input        *string
		expectedISO  string
		expectedYear int32
		degraded     bool
	}{
		{name: "full date", input: ptr("1965-08-01"), expectedISO: "1965-08-01", expectedYear: 1965},
		{name: "year only", input: ptr("2005"), expectedISO: "2005-01-01", expectedYear: 2005},
		{name: "garbage", input: ptr("13/45/2020"), degraded: true},
		{name: "nil", input: nil},
		{name: "blank", input: ptr("   ")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iso, year, degraded := Date(tt.input)
			if degraded != tt.degraded {
				t.Fatalf("Expected degraded=%v, got %v", tt.degraded, degraded)
			}
			if tt.expectedISO == "" {
				if iso != nil || year != nil {
					t.Errorf("Expected absent date, got %v / %v", iso, year)
				}
				return
			}
			if iso == nil || *iso != tt.expectedISO {
				t.Errorf("Expected ISO %s, got %v", tt.expectedISO, iso)
			}
			if year == nil || *year != tt.expectedYear {
				t.Errorf("Expected year %d, got %v", tt.expectedYear, year)
			}
		})
	}
}

func TestLanguage(t *testing.T) {
	got, degraded := Language(ptr("en"))
	if degraded || got == nil || *got != "en" {
		t.Errorf("Expected en, got %v (degraded=%v)", got, degraded)
	}

	got, degraded = Language(ptr("pt-br"))
	if degraded || got == nil || *got != "pt-BR" {
		t.Errorf("Expected pt-BR, got %v (degraded=%v)", got, degraded)
	}

	got, degraded = Language(ptr("not a language!"))
	if !degraded || got != nil {
		t.Errorf("Expected degraded absent value, got %v", got)
	}

	got, degraded = Language(nil)
	if degraded || got != nil {
		t.Error("Expected nil input to stay absent without degradation")
	}
}

func TestCurrency(t *testing.T) {
	got, degraded := Currency(ptr("eur"))
	if degraded || got == nil || *got != "EUR" {
		t.Errorf("Expected EUR, got %v (degraded=%v)", got, degraded)
	}

	got, degraded = Currency(ptr("EURO"))
	if !degraded || got != nil {
		t.Errorf("Expected degraded absent value, got %v", got)
	}
}

func TestPrice(t *testing.T) {
	got, degraded := Price(ptr(" 12.99 "))
	if degraded || got == nil || *got != 12.99 {
		t.Errorf("Expected 12.99, got %v (degraded=%v)", got, degraded)
	}

	for _, bad := range []string{"free", "NaN", "Inf"} {
		got, degraded = Price(ptr(bad))
		if !degraded || got != nil {
			t.Errorf("Price(%q): expected degraded absent value, got %v", bad, got)
		}
	}

	got, degraded = Price(nil)
	if degraded || got != nil {
		t.Error("Expected nil input to stay absent")
	}
}
