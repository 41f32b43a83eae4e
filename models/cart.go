package models

import "time"

// Cart is the server-side cart, one per user. It is cleared when an order
// is paid so a completed checkout never leaves stale items behind.
type Cart struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	UserID     uint       `json:"user_id" gorm:"uniqueIndex;not null"`
	Items      []CartItem `json:"items,omitempty" gorm:"foreignKey:CartID"`
	TotalPrice float64    `json:"total_price"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type CartItem struct {
	ID        uint     `json:"id" gorm:"primaryKey"`
	CartID    uint     `json:"cart_id" gorm:"not null"`
	ProductID uint     `json:"product_id" gorm:"not null"`
	Product   *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Quantity  int      `json:"quantity" gorm:"not null"`
	Price     float64  `json:"price" gorm:"not null"` // snapshot price at add time
}
