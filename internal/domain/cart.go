package domain

type CartLine struct {
	ProductID string  `json:"productId"`
	Title     string  `json:"title"`
	TitleThai string  `json:"titleThai"`
	Price     float64 `json:"price"`
	Image     string  `json:"image"`
	Quantity  int     `json:"quantity"`
}
