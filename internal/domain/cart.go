package domain

import "time"

type Cart struct {
	ID        string     `bson:"_id,omitempty" json:"-"`
	UserID    string     `bson:"user_id" json:"user_id"`
	Items     []CartItem `bson:"items" json:"items"`
	CreatedAt time.Time  `bson:"created_at" json:"-"`
	UpdatedAt time.Time  `bson:"updated_at" json:"-"`
}

// CartItem is one product line in the cart. Only these fields are retained
// from the product at add time.
type CartItem struct {
	ProductID int64   `bson:"product_id" json:"id"`
	Name      string  `bson:"name" json:"name"`
	Quantity  int     `bson:"quantity" json:"quantity"`
	Price     float64 `bson:"price" json:"price"`
	Platform  string  `bson:"platform" json:"platform"`
	ImageURL  string  `bson:"image_url" json:"image_url"`
}
