package models

// ProductSummary is one listing entry taken from the embedded catalog payload.
// Every field is already rendered as it appears in products-api.txt.
type ProductSummary struct {
	Name       string `json:"name" bson:"name"`
	URL        string `json:"url" bson:"url"`
	Rating     string `json:"rating" bson:"rating"`
	Reviews    string `json:"reviews" bson:"reviews"`
	Price      string `json:"price" bson:"price"`
	PromoPrice string `json:"promo_price" bson:"promo_price"` // Mirrors Price when OldPrice is set
	OldPrice   string `json:"old_price" bson:"old_price"`
	Discount   string `json:"discount" bson:"discount"`
}

// RawDetail holds the text read from a rendered product page before any
// number normalization.
type RawDetail struct {
	Price    string `json:"price" bson:"price"`
	OldPrice string `json:"old_price" bson:"old_price"`
	Rating   string `json:"rating" bson:"rating"`
	Reviews  string `json:"reviews" bson:"reviews"`
}

// ProductDetail is the normalized result of the product page extractor.
type ProductDetail struct {
	Price       string `json:"price" bson:"price"`
	PriceOld    string `json:"price_old" bson:"price_old"`
	Rating      string `json:"rating" bson:"rating"`
	ReviewCount string `json:"review_count" bson:"review_count"`
}
