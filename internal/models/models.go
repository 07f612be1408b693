package models

import "time"

// Product represents a catalog product. The catalog is compiled into the
// binary and never changes at runtime.
type Product struct {
	ID             int64             `json:"id"`
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Image          string            `json:"image"`
	Price          float64           `json:"price"`
	Category       string            `json:"category,omitempty"`
	Features       []string          `json:"features"`
	Rating         float64           `json:"rating"`
	Reviews        []Review          `json:"reviews"`
	Specifications map[string]string `json:"specifications"`
}

// Review is a customer review attached to a product.
type Review struct {
	ID       int64   `json:"id"`
	UserName string  `json:"user_name"`
	Rating   float64 `json:"rating"`
	Comment  string  `json:"comment"`
	Date     string  `json:"date"`
}

// CartItem is a product/quantity pair in a cart. At most one item exists
// per product id and quantity is always >= 1.
type CartItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// ShopFilters holds the catalog view filters.
type ShopFilters struct {
	Category    string  `json:"category"`
	MinPrice    float64 `json:"min_price"`
	MaxPrice    float64 `json:"max_price"`
	SortBy      string  `json:"sort_by"`
	SearchQuery string  `json:"search_query"`
}

// Sort orders for ShopFilters.SortBy
const (
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortRating    = "rating"
	SortNewest    = "newest"
)

// Order represents a customer order
type Order struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Total     float64   `db:"total" json:"total"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	Items []OrderItem `db:"-" json:"items,omitempty"`
}

// OrderItem represents a line item in an order
type OrderItem struct {
	ID        int64  `db:"id" json:"id"`
	OrderID   string `db:"order_id" json:"order_id"`
	ProductID int64  `db:"product_id" json:"product_id"`
	Quantity  int    `db:"quantity" json:"quantity"`
}

// Order statuses, advanced only by the fulfillment pipeline
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
)

// Profile is the user-editable metadata attached to an identity.
type Profile struct {
	ID        string  `db:"id" json:"id"`
	Email     string  `db:"email" json:"email"`
	FullName  *string `db:"full_name" json:"full_name"`
	AvatarURL *string `db:"avatar_url" json:"avatar_url"`
	Phone     *string `db:"phone" json:"phone"`
}

// ProfilePatch is a partial profile update; nil fields are left untouched.
type ProfilePatch struct {
	FullName  *string `json:"full_name,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	Phone     *string `json:"phone,omitempty"`
}

// Address is a user-scoped shipping/billing address
type Address struct {
	ID        string `db:"id" json:"id"`
	UserID    string `db:"user_id" json:"user_id"`
	Type      string `db:"type" json:"type"`
	Name      string `db:"name" json:"name"`
	Street    string `db:"street" json:"street"`
	City      string `db:"city" json:"city"`
	State     string `db:"state" json:"state"`
	ZipCode   string `db:"zip_code" json:"zip_code"`
	Country   string `db:"country" json:"country"`
	IsDefault bool   `db:"is_default" json:"is_default"`
}

// PaymentMethod is a user-scoped stored payment method
type PaymentMethod struct {
	ID        string `db:"id" json:"id"`
	UserID    string `db:"user_id" json:"user_id"`
	Type      string `db:"type" json:"type"`
	Last4     string `db:"last4" json:"last4"`
	Expiry    string `db:"expiry" json:"expiry"`
	IsDefault bool   `db:"is_default" json:"is_default"`
}

// Totals are the display figures for a cart, recomputed on every request.
type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"shipping"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// ContactMessage is a contact-form submission
type ContactMessage struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required"`
	Subject string `json:"subject" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// ProcessedEvent for idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
