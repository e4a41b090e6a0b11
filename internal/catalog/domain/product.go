package domain

import "time"

type Product struct {
	ID          string    `bson:"_id,omitempty" json:"id"`
	ProductID   string    `bson:"product_id" json:"productId"`
	Name        string    `bson:"name" json:"name"`
	Price       float64   `bson:"price" json:"price"`
	Stock       int       `bson:"stock" json:"stock"`
	Category    string    `bson:"category" json:"category"`
	Description string    `bson:"description" json:"description"`
	Images      []string  `bson:"images,omitempty" json:"images,omitempty"`
	CreatedAt   time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updatedAt"`
}

// ProductUpdate carries a partial edit. Nil fields are left untouched;
// ProductID is immutable after creation and deliberately absent here.
type ProductUpdate struct {
	Name        *string   `json:"name,omitempty"`
	Price       *float64  `json:"price,omitempty"`
	Stock       *int      `json:"stock,omitempty"`
	Category    *string   `json:"category,omitempty"`
	Description *string   `json:"description,omitempty"`
	Images      *[]string `json:"images,omitempty"`
}
