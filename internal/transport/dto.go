package transport

import (
	"github.com/google/uuid"

	"github.com/Skotchmaster/food_market/internal/models"
)

type AddToCartRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  *int      `json:"quantity"   validate:"omitempty,min=1,max=99"`
}

type SetQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,max=99"`
}

type CheckoutRequest struct {
	DeliveryAddress string `json:"delivery_address" validate:"required,max=500"`
	Phone           string `json:"phone"            validate:"required,max=32"`
	Notes           string `json:"notes"            validate:"max=1000"`
}

type CheckoutResponse struct {
	Order    *models.Order `json:"order"`
	Replayed bool          `json:"replayed"`
	Warning  string        `json:"warning,omitempty"`
}

type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed preparing ready delivered cancelled"`
}

type SubmitPaymentRequest struct {
	Method string `json:"method" validate:"required"`
}

type SubmitPaymentResponse struct {
	Order   *models.Order   `json:"order"`
	Payment *models.Payment `json:"payment"`
}

type VerifyPaymentRequest struct {
	Paid *bool `json:"paid" validate:"required"`
}

type VendorApplicationRequest struct {
	BusinessName string `json:"business_name" validate:"required,max=120"`
	Description  string `json:"description"   validate:"required,max=2000"`
	Category     string `json:"category"      validate:"required,max=60"`
}

type DecisionResponse struct {
	Profile *models.Profile `json:"profile"`
	Vendor  *models.Vendor  `json:"vendor,omitempty"`
}

type SetRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin vendor customer"`
}

type OrderDetail struct {
	*models.Order
	NextStatus *models.OrderStatus       `json:"next_status,omitempty"`
	Final      bool                      `json:"final"`
	History    []models.OrderStatusEvent `json:"history"`
	Payments   []models.Payment          `json:"payments"`
}
