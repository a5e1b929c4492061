package domain

// CategoryToken is the uppercase category value some backend paths return for
// a product.
type CategoryToken string

const (
	CategoryNoodle        CategoryToken = "NOODLE"
	CategoryFriedRice     CategoryToken = "FRIED_RICE"
	CategoryMainDish      CategoryToken = "MAIN_DISH"
	CategorySoup          CategoryToken = "SOUP"
	CategorySaladSideDish CategoryToken = "SALAD_SIDE_DISH"
	CategorySideDish      CategoryToken = "SIDE_DISH"
	CategoryAppetizer     CategoryToken = "APPETIZER"
)

// AllCategories is the client-only filter selector. It is never sent to the
// backend.
const AllCategories = "All"

// DefaultProductImage replaces an empty imageUrls list.
const DefaultProductImage = "/product-images/product-1.webp"

// ProductCurrency is the only currency prices are quoted in.
const ProductCurrency = "THB"

// CategoryTokens lists the known tokens in menu order.
var CategoryTokens = []CategoryToken{
	CategoryNoodle,
	CategoryFriedRice,
	CategoryMainDish,
	CategorySoup,
	CategorySaladSideDish,
	CategorySideDish,
	CategoryAppetizer,
}

var categoryDisplayNames = map[CategoryToken]string{
	CategoryNoodle:        "Noodle",
	CategoryFriedRice:     "Fried Rice",
	CategoryMainDish:      "Main Dish",
	CategorySoup:          "Soup",
	CategorySaladSideDish: "Salad (Side Dish)",
	CategorySideDish:      "Side Dish",
	CategoryAppetizer:     "Appetizer",
}

// DisplayName returns the menu label for a known token.
func (t CategoryToken) DisplayName() (string, bool) {
	name, ok := categoryDisplayNames[t]
	return name, ok
}

func IsValidCategoryToken(t CategoryToken) bool {
	_, ok := categoryDisplayNames[t]
	return ok
}

// APIProduct is the product as the backend sends it.
type APIProduct struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   *string  `json:"description"`
	Category      string   `json:"category"`
	Ingredients   *string  `json:"ingredients"`
	Price         string   `json:"price"`
	StockQuantity int      `json:"stockQuantity"`
	ImageURLs     []string `json:"imageUrls"`
	CreatedAt     string   `json:"createdAt"`
	UpdatedAt     string   `json:"updatedAt"`
}

// Product is the view-model rendered by the menu and product pages.
type Product struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	TitleThai   string  `json:"titleThai"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
	Category    string  `json:"category"`
}

// ProductDetail is the product page model: the card fields plus the full
// image gallery and a few other products to browse.
type ProductDetail struct {
	Product
	Currency string    `json:"currency"`
	Images   []string  `json:"images"`
	Related  []Product `json:"related"`
}

type PageMeta struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

type ProductList struct {
	Products []APIProduct
	Meta     PageMeta
}
