// Package catalog fetches filtered, paginated product listings and owns the
// vocabulary shared by the storefront filter and the catalog.
package catalog

import (
	"sort"
	"strings"

	"storefront/internal/models"
)

// categoryLabels maps storefront filter tokens to catalog category labels.
var categoryLabels = map[string]string{
	"shirt":          "Shirts",
	"jeans":          "Jeans",
	"shoes":          "Shoes",
	"kurtas":         "Kurtas",
	"sarees":         "Sarees",
	"dress-material": "Dress Material",
}

// Sidebar defaults used when the product collection is empty.
var (
	DefaultCategories = []string{"shirt", "jeans", "shoes", "kurtas", "sarees"}
	DefaultGenders    = []string{"Men", "Women"}
	DefaultColors     = []string{"Red", "Blue", "Green", "Black", "White"}
)

// CategoryLabel returns the catalog label for a storefront token. Unknown
// tokens are returned unchanged.
func CategoryLabel(token string) string {
	if label, ok := categoryLabels[strings.ToLower(strings.TrimSpace(token))]; ok {
		return label
	}
	return token
}

// CategoryLabels maps every token with CategoryLabel, dropping duplicates
// that map to the same label.
func CategoryLabels(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		label := CategoryLabel(t)
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	return out
}

// Options is the filter sidebar vocabulary.
type Options struct {
	Categories []string `json:"categories"`
	Genders    []string `json:"genders"`
	Colors     []string `json:"colors"`
}

// FilterOptions collects the sorted distinct categories, genders and colors
// of products. Each list falls back to its default when no product carries
// a value for it.
func FilterOptions(products []models.Product) Options {
	return Options{
		Categories: distinct(products, func(p models.Product) string { return p.Category }, DefaultCategories),
		Genders:    distinct(products, func(p models.Product) string { return p.Gender }, DefaultGenders),
		Colors:     distinct(products, func(p models.Product) string { return p.Color }, DefaultColors),
	}
}

func distinct(products []models.Product, field func(models.Product) string, fallback []string) []string {
	seen := map[string]struct{}{}
	for _, p := range products {
		if v := strings.TrimSpace(field(p)); v != "" {
			seen[v] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return append([]string(nil), fallback...)
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
