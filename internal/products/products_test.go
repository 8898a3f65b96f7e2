package products

import (
	"net/url"
	"strings"
	"testing"

	"github.com/jmmlabs/holidayhome-backend/internal/gemini"
)

func TestFromSuggestions_UsesSuggestionsAndTag(t *testing.T) {
	c := &Catalog{AffiliateTag: "holidayhome-20"}

	got := c.FromSuggestions("classic_christmas", []gemini.ProductSuggestion{
		{ProductName: "Evergreen Wreath", SearchTerm: "christmas wreath"},
		{ProductName: "String Lights", SearchTerm: "warm white string lights"},
		{ProductName: "Velvet Bows", SearchTerm: "red velvet bows"},
		{ProductName: "Pine Garland", SearchTerm: "pine garland"},
	})

	if len(got) != 4 {
		t.Fatalf("expected 4 products, got %d", len(got))
	}
	if got[0].Name != "Evergreen Wreath" {
		t.Fatalf("unexpected first product: %+v", got[0])
	}

	u, err := url.Parse(got[0].Link)
	if err != nil {
		t.Fatalf("parse link: %v", err)
	}
	if u.Host != "www.amazon.com" || u.Path != "/s" {
		t.Fatalf("unexpected link target: %q", got[0].Link)
	}
	q := u.Query()
	if q.Get("k") != "christmas wreath" {
		t.Fatalf("search term missing: %q", got[0].Link)
	}
	if q.Get("tag") != "holidayhome-20" {
		t.Fatalf("affiliate tag missing: %q", got[0].Link)
	}
}

func TestFromSuggestions_NoTagOmitsParam(t *testing.T) {
	c := &Catalog{}
	got := c.FromSuggestions("classic_christmas", nil)
	for _, p := range got {
		if strings.Contains(p.Link, "tag=") {
			t.Fatalf("untagged catalog emitted a tag: %q", p.Link)
		}
	}
}

func TestFromSuggestions_BackfillsToMinimum(t *testing.T) {
	c := &Catalog{}

	got := c.FromSuggestions("rustic_farmhouse", []gemini.ProductSuggestion{
		{ProductName: "Burlap Ribbon", SearchTerm: "burlap ribbon"},
	})
	if len(got) != minProducts {
		t.Fatalf("expected backfill to %d, got %d", minProducts, len(got))
	}
	if got[0].Name != "Burlap Ribbon" {
		t.Fatalf("suggestion should lead the list: %+v", got[0])
	}
	// Backfill comes from the style's own fallback set.
	if got[1].Name != fallbackItems["rustic_farmhouse"][0].name {
		t.Fatalf("expected rustic fallback, got %+v", got[1])
	}
}

func TestFromSuggestions_NilSuggestionsReturnsFallback(t *testing.T) {
	c := &Catalog{}
	got := c.FromSuggestions("elegant_gold", nil)
	if len(got) != minProducts {
		t.Fatalf("expected %d fallback products, got %d", minProducts, len(got))
	}
	if got[0].Name != fallbackItems["elegant_gold"][0].name {
		t.Fatalf("unexpected fallback head: %+v", got[0])
	}
}

func TestFromSuggestions_UnknownStyleBorrowsClassic(t *testing.T) {
	c := &Catalog{}
	got := c.FromSuggestions("custom", nil)
	if len(got) != minProducts {
		t.Fatalf("expected %d products, got %d", minProducts, len(got))
	}
	if got[0].Name != fallbackItems["classic_christmas"][0].name {
		t.Fatalf("unknown style should borrow the classic set: %+v", got[0])
	}
}

func TestFromSuggestions_SkipsEmptySearchTerms(t *testing.T) {
	c := &Catalog{}
	got := c.FromSuggestions("classic_christmas", []gemini.ProductSuggestion{
		{ProductName: "No Search Term"},
		{ProductName: "Wreath", SearchTerm: "wreath"},
	})
	for _, p := range got {
		if p.Name == "No Search Term" {
			t.Fatalf("suggestion without a search term must be dropped")
		}
	}
}

func TestFromSuggestions_ManySuggestionsNoBackfill(t *testing.T) {
	c := &Catalog{}
	sugs := []gemini.ProductSuggestion{
		{ProductName: "A", SearchTerm: "a"},
		{ProductName: "B", SearchTerm: "b"},
		{ProductName: "C", SearchTerm: "c"},
		{ProductName: "D", SearchTerm: "d"},
		{ProductName: "E", SearchTerm: "e"},
	}
	got := c.FromSuggestions("classic_christmas", sugs)
	if len(got) != 5 {
		t.Fatalf("suggestions above the floor must all pass through, got %d", len(got))
	}
}
