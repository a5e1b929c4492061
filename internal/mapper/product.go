package mapper

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"bambite_gateway/internal/domain"
)

// FallbackCategory is shown for products whose category cannot be resolved.
const FallbackCategory = "Noodle"

var ErrInvalidPrice = errors.New("invalid product price")

// APICategoryToFrontend maps a category token to its display name. Unknown
// tokens map to FallbackCategory.
func APICategoryToFrontend(token domain.CategoryToken) string {
	if name, ok := token.DisplayName(); ok {
		return name
	}
	return FallbackCategory
}

// FrontendCategoryToAPI maps a display name back to its token. Unknown names
// map to NOODLE.
func FrontendCategoryToAPI(display string) domain.CategoryToken {
	for _, token := range domain.CategoryTokens {
		if name, _ := token.DisplayName(); name == display {
			return token
		}
	}
	return domain.CategoryNoodle
}

// CategoryDisplayName resolves a product's category reference, which is either
// an uppercase token or a category identifier from the active list.
func CategoryDisplayName(ref string, categories []domain.Category) string {
	ref = strings.TrimSpace(ref)
	if name, ok := domain.CategoryToken(ref).DisplayName(); ok {
		return name
	}
	for _, c := range categories {
		if c.ID == ref && c.Name != "" {
			return c.Name
		}
	}
	return FallbackCategory
}

// CategoryFilters builds the menu filter list. The built-in seven entries are
// used when no active category is known.
func CategoryFilters(active []domain.Category) []string {
	filters := []string{domain.AllCategories}
	if len(active) == 0 {
		for _, token := range domain.CategoryTokens {
			name, _ := token.DisplayName()
			filters = append(filters, name)
		}
		return filters
	}
	for _, c := range active {
		filters = append(filters, c.Name)
	}
	return filters
}

// CategoryFilterValue turns a menu selection into the value sent as the
// category query parameter. An empty result means no filter.
func CategoryFilterValue(selected string, active []domain.Category) string {
	selected = strings.TrimSpace(selected)
	if selected == "" || strings.EqualFold(selected, domain.AllCategories) {
		return ""
	}
	for _, c := range active {
		if strings.EqualFold(c.Name, selected) || c.ID == selected {
			return c.ID
		}
	}
	if domain.IsValidCategoryToken(domain.CategoryToken(selected)) {
		return selected
	}
	return string(FrontendCategoryToAPI(selected))
}

// ParsePrice parses the backend's decimal string. Negative and non-finite
// values are rejected.
func ParsePrice(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}
	return v, nil
}

func ProductFromAPI(p domain.APIProduct, categories []domain.Category) (domain.Product, error) {
	price, err := ParsePrice(p.Price)
	if err != nil {
		return domain.Product{}, fmt.Errorf("product %s: %w", p.ID, err)
	}

	image := domain.DefaultProductImage
	if len(p.ImageURLs) > 0 && strings.TrimSpace(p.ImageURLs[0]) != "" {
		image = p.ImageURLs[0]
	}
	description := ""
	if p.Description != nil {
		description = *p.Description
	}

	return domain.Product{
		ID:          p.ID,
		Title:       p.Name,
		TitleThai:   "",
		Price:       price,
		Description: description,
		Image:       image,
		Category:    CategoryDisplayName(p.Category, categories),
	}, nil
}

// ProductDetailFromAPI maps a product for its detail page. Blank image URLs
// are skipped and an empty gallery gets the placeholder.
func ProductDetailFromAPI(p domain.APIProduct, categories []domain.Category) (domain.ProductDetail, error) {
	card, err := ProductFromAPI(p, categories)
	if err != nil {
		return domain.ProductDetail{}, err
	}
	images := make([]string, 0, len(p.ImageURLs))
	for _, u := range p.ImageURLs {
		if strings.TrimSpace(u) != "" {
			images = append(images, u)
		}
	}
	if len(images) == 0 {
		images = append(images, domain.DefaultProductImage)
	}
	return domain.ProductDetail{
		Product:  card,
		Currency: domain.ProductCurrency,
		Images:   images,
		Related:  []domain.Product{},
	}, nil
}

// ProductsFromAPI maps a list, dropping products whose price cannot be
// parsed. The dropped products are returned for logging.
func ProductsFromAPI(products []domain.APIProduct, categories []domain.Category) ([]domain.Product, []error) {
	out := make([]domain.Product, 0, len(products))
	var dropped []error
	for _, p := range products {
		vm, err := ProductFromAPI(p, categories)
		if err != nil {
			dropped = append(dropped, err)
			continue
		}
		out = append(out, vm)
	}
	return out, dropped
}
