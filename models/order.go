package models

import "time"

// DeliveryStatus represents the fulfillment-pipeline state of an order,
// distinct from payment state.
type DeliveryStatus string

const (
	StatusPending         DeliveryStatus = "Pending"
	StatusOnTheWayToStore DeliveryStatus = "On The Way To Store"
	StatusAtStore         DeliveryStatus = "At Store"
	StatusPicked          DeliveryStatus = "Picked"
	StatusDelivered       DeliveryStatus = "Delivered"
	StatusCancelled       DeliveryStatus = "Cancelled"
)

// Payment methods accepted at checkout
const (
	PaymentMpesa          = "M-Pesa"
	PaymentCashOnDelivery = "Cash on Delivery"
	PaymentCard           = "Card"
	PaymentBitcoin        = "Bitcoin"
	PaymentPayPal         = "PayPal"
)

type Order struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	Ref    string `json:"ref" gorm:"uniqueIndex;not null"` // external correlation id, used in provider metadata
	UserID uint   `json:"user_id" gorm:"not null"`
	User   *User  `json:"user,omitempty" gorm:"foreignKey:UserID"`

	Items           []OrderItem     `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	ShippingAddress ShippingAddress `json:"shipping_address" gorm:"embedded;embeddedPrefix:ship_"`

	PaymentMethod string        `json:"payment_method"`
	PaymentResult PaymentResult `json:"payment_result" gorm:"embedded;embeddedPrefix:payment_"`

	ItemsPrice    float64 `json:"items_price"`
	ShippingPrice float64 `json:"shipping_price"`
	TotalPrice    float64 `json:"total_price"`

	IsPaid bool       `json:"is_paid" gorm:"default:false"`
	PaidAt *time.Time `json:"paid_at"`

	IsDelivered bool       `json:"is_delivered" gorm:"default:false"`
	DeliveredAt *time.Time `json:"delivered_at"`

	DeliveryStatus   DeliveryStatus   `json:"delivery_status" gorm:"not null;default:'Pending'"`
	StatusTimestamps StatusTimestamps `json:"status_timestamps" gorm:"embedded;embeddedPrefix:ts_"`

	Logs []OrderLog `json:"logs,omitempty" gorm:"foreignKey:OrderID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrderItem is a snapshot of the product at order time, decoupled from
// live Product state.
type OrderItem struct {
	ID        uint    `json:"id" gorm:"primaryKey"`
	OrderID   uint    `json:"order_id" gorm:"not null"`
	ProductID uint    `json:"product_id" gorm:"not null"`
	Name      string  `json:"name"`
	Qty       int     `json:"qty" gorm:"not null"`
	Price     float64 `json:"price" gorm:"not null"`
	Image     string  `json:"image"`
}

type ShippingAddress struct {
	FullName   string `json:"full_name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Phone      string `json:"phone"`
}

// PaymentResult is mutated only by a payment adapter.
type PaymentResult struct {
	ProviderID   string  `json:"id"` // CheckoutRequestID / PaymentIntent id / charge id
	Status       string  `json:"status"`
	UpdateTime   string  `json:"update_time"`
	EmailAddress string  `json:"email_address"`
	Amount       float64 `json:"amount"`
	Receipt      string  `json:"receipt"` // e.g. M-Pesa receipt number
}

// StatusTimestamps records when each non-initial delivery state was first
// entered. Each field is set at most once.
type StatusTimestamps struct {
	OnTheWayToStore *time.Time `json:"on_the_way_to_store"`
	AtStore         *time.Time `json:"at_store"`
	Picked          *time.Time `json:"picked"`
	Delivered       *time.Time `json:"delivered"`
}

// OrderLog is an append-only audit record, one row per successful status
// transition. Never updated or deleted.
type OrderLog struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	OrderID    uint           `json:"order_id" gorm:"not null;index"`
	ActorID    uint           `json:"actor_id"`
	Actor      *User          `json:"actor,omitempty" gorm:"foreignKey:ActorID"`
	FromStatus DeliveryStatus `json:"from_status"`
	ToStatus   DeliveryStatus `json:"to_status" gorm:"not null"`
	Note       string         `json:"note"`
	CreatedAt  time.Time      `json:"created_at"`
}
