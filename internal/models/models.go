package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/food_market/internal/role"
)

// Amounts are stored in minor currency units (cents).

type Profile struct {
	UserID                  uuid.UUID `gorm:"type:uuid;primaryKey"       json:"user_id"`
	Email                   string    `gorm:"index"                      json:"email"`
	FullName                string    `json:"full_name"`
	Phone                   string    `json:"phone"`
	Address                 string    `json:"address"`
	Role                    role.Role `gorm:"type:varchar(16);not null"  json:"role"`
	VendorBusinessName      string    `json:"vendor_business_name,omitempty"`
	VendorDescription       string    `json:"vendor_description,omitempty"`
	VendorCategory          string    `json:"vendor_category,omitempty"`
	VendorApplicationStatus *string   `gorm:"index"                      json:"vendor_application_status,omitempty"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

const (
	ApplicationPending  = "pending"
	ApplicationApproved = "approved"
	ApplicationRejected = "rejected"
)

type Vendor struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"     json:"id"`
	OwnerID     uuid.UUID `gorm:"type:uuid;index;not null" json:"owner_id"`
	Name        string    `gorm:"not null"                 json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	DeliveryFee int64     `gorm:"not null;default:0"       json:"delivery_fee"`
	MinOrder    int64     `gorm:"not null;default:0"       json:"min_order"`
	IsActive    bool      `gorm:"not null"                 json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"     json:"id"`
	VendorID    uuid.UUID `gorm:"type:uuid;index;not null" json:"vendor_id"`
	Name        string    `gorm:"not null"                 json:"name"`
	Description string    `json:"description"`
	Price       int64     `gorm:"not null;check:price>=0"  json:"price"`
	IsAvailable bool      `gorm:"not null"                 json:"is_available"`
	CreatedAt   time.Time `json:"created_at"`
}

type Order struct {
	ID              uuid.UUID     `gorm:"type:uuid;primaryKey"          json:"id"`
	UserID          uuid.UUID     `gorm:"type:uuid;index;not null"      json:"user_id"`
	VendorID        uuid.UUID     `gorm:"type:uuid;index;not null"      json:"vendor_id"`
	TotalAmount     int64         `gorm:"not null"                      json:"total_amount"`
	DeliveryFee     int64         `gorm:"not null"                      json:"delivery_fee"`
	Status          OrderStatus   `gorm:"type:varchar(16);not null"     json:"status"`
	PaymentStatus   PaymentStatus `gorm:"type:varchar(32);not null"     json:"payment_status"`
	DeliveryAddress string        `gorm:"not null"                      json:"delivery_address"`
	Phone           string        `gorm:"not null"                      json:"phone"`
	Notes           string        `json:"notes,omitempty"`
	Items           []OrderItem   `gorm:"foreignKey:OrderID"            json:"items,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// Subtotal is the sum of the line totals, without the delivery fee.
func (o *Order) Subtotal() int64 {
	var sum int64
	for _, it := range o.Items {
		sum += it.TotalPrice
	}
	return sum
}

type OrderItem struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"                json:"id"`
	OrderID    uuid.UUID `gorm:"type:uuid;index;not null"            json:"order_id"`
	ProductID  uuid.UUID `gorm:"type:uuid;not null"                  json:"product_id"`
	Name       string    `gorm:"not null"                            json:"name"`
	Quantity   int       `gorm:"not null;check:quantity>0"           json:"quantity"`
	UnitPrice  int64     `gorm:"not null"                            json:"unit_price"`
	TotalPrice int64     `gorm:"not null"                            json:"total_price"`
}

type Payment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"     json:"id"`
	OrderID   uuid.UUID `gorm:"type:uuid;index;not null" json:"order_id"`
	Method    string    `gorm:"not null"                 json:"method"`
	Reference string    `gorm:"uniqueIndex;not null"     json:"reference"`
	Amount    int64     `gorm:"not null"                 json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

type OrderStatusEvent struct {
	ID         uuid.UUID   `gorm:"type:uuid;primaryKey"      json:"id"`
	OrderID    uuid.UUID   `gorm:"type:uuid;index;not null"  json:"order_id"`
	FromStatus OrderStatus `gorm:"type:varchar(16);not null" json:"from_status"`
	ToStatus   OrderStatus `gorm:"type:varchar(16);not null" json:"to_status"`
	ActorID    uuid.UUID   `gorm:"type:uuid;not null"        json:"actor_id"`
	ActorRole  role.Role   `gorm:"type:varchar(16);not null" json:"actor_role"`
	CreatedAt  time.Time   `json:"created_at"`
}

func newID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (v *Vendor) BeforeCreate(tx *gorm.DB) error           { newID(&v.ID); return nil }
func (p *Product) BeforeCreate(tx *gorm.DB) error          { newID(&p.ID); return nil }
func (o *Order) BeforeCreate(tx *gorm.DB) error            { newID(&o.ID); return nil }
func (i *OrderItem) BeforeCreate(tx *gorm.DB) error        { newID(&i.ID); return nil }
func (p *Payment) BeforeCreate(tx *gorm.DB) error          { newID(&p.ID); return nil }
func (e *OrderStatusEvent) BeforeCreate(tx *gorm.DB) error { newID(&e.ID); return nil }
