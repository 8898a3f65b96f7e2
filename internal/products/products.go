// Package products turns model product suggestions into the affiliate
// shopping list returned alongside a generated image. It builds Amazon
// search links carrying the configured affiliate tag and backfills from a
// small static per-style catalog when the model finds too few items.
package products

import (
	"net/url"

	"github.com/jmmlabs/holidayhome-backend/internal/gemini"
)

// minProducts is the floor below which static fallback items are appended.
const minProducts = 4

// placeholderImage is shown for model-suggested items, which carry no photo
// of their own.
const placeholderImage = "https://images.unsplash.com/photo-1512389142860-9c449e58a543?w=400"

// Product is one affiliate shopping suggestion in the shape the mobile app
// renders.
type Product struct {
	Name  string `json:"name"`
	Price string `json:"price"`
	Image string `json:"image"`
	Link  string `json:"link"`
}

// Catalog resolves suggestions into affiliate products.
type Catalog struct {
	// AffiliateTag is appended to every product link when non-empty.
	AffiliateTag string
}

// FromSuggestions converts model suggestions for the given style into
// products, appending static fallbacks until minProducts is reached. It is
// also the failure path: with nil suggestions it returns the fallback list.
func (c *Catalog) FromSuggestions(style string, suggestions []gemini.ProductSuggestion) []Product {
	out := make([]Product, 0, minProducts)
	for _, s := range suggestions {
		if s.SearchTerm == "" {
			continue
		}
		out = append(out, Product{
			Name:  s.ProductName,
			Price: "From $19.99",
			Image: placeholderImage,
			Link:  c.searchLink(s.SearchTerm),
		})
	}
	if len(out) < minProducts {
		for _, f := range fallbackFor(style) {
			if len(out) >= minProducts {
				break
			}
			out = append(out, Product{
				Name:  f.name,
				Price: f.price,
				Image: f.image,
				Link:  c.searchLink(f.search),
			})
		}
	}
	return out
}

// searchLink builds an Amazon search URL for term, tagged when configured.
func (c *Catalog) searchLink(term string) string {
	q := url.Values{}
	q.Set("k", term)
	if c.AffiliateTag != "" {
		q.Set("tag", c.AffiliateTag)
	}
	return "https://www.amazon.com/s?" + q.Encode()
}

type fallbackItem struct {
	name   string
	price  string
	image  string
	search string
}

// fallbackItems is the static per-style catalog used when the model returns
// fewer than minProducts suggestions. Styles without an entry borrow the
// classic set.
var fallbackItems = map[string][]fallbackItem{
	"classic_christmas": {
		{"Warm White String Lights", "From $14.99", placeholderImage, "warm white christmas string lights"},
		{"Pre-Lit Evergreen Wreath", "From $29.99", placeholderImage, "pre lit christmas wreath"},
		{"Red Velvet Bow Set", "From $12.99", placeholderImage, "red velvet christmas bows"},
		{"Pine Garland with Berries", "From $24.99", placeholderImage, "christmas pine garland berries"},
	},
	"nordic_minimalist": {
		{"Paper Star Pendant Light", "From $19.99", placeholderImage, "scandinavian paper star light"},
		{"White Candle Set", "From $16.99", placeholderImage, "white pillar candle set"},
		{"Natural Wood Tree Ornaments", "From $13.99", placeholderImage, "wooden minimalist christmas ornaments"},
		{"Wool Knit Throw Blanket", "From $34.99", placeholderImage, "neutral knit throw blanket"},
	},
	"rustic_farmhouse": {
		{"Burlap Ribbon Spool", "From $9.99", placeholderImage, "burlap christmas ribbon"},
		{"Mason Jar Candle Lanterns", "From $22.99", placeholderImage, "mason jar candle lantern set"},
		{"Pinecone Decor Basket", "From $15.99", placeholderImage, "natural pinecone decorations"},
		{"Wooden Bead Garland", "From $11.99", placeholderImage, "farmhouse wooden bead garland"},
	},
	"elegant_gold": {
		{"Gold Ornament Set", "From $24.99", placeholderImage, "gold christmas ornament set"},
		{"Champagne Ribbon Garland", "From $18.99", placeholderImage, "gold ribbon christmas garland"},
		{"Warm White LED Cluster Lights", "From $21.99", placeholderImage, "warm white cluster lights"},
		{"Gilded Candle Holders", "From $27.99", placeholderImage, "gold candle holders set"},
	},
}

// fallbackFor returns the static items for style, defaulting to the classic
// set for unknown or custom styles.
func fallbackFor(style string) []fallbackItem {
	if items, ok := fallbackItems[style]; ok {
		return items
	}
	return fallbackItems["classic_christmas"]
}
