package orders

import (
	"time"

	"framing-command-center/internal/apperr"
)

// Status is the workflow stage of a framing order.
type Status string

const (
	StatusReceived     Status = "received"
	StatusMeasuring    Status = "measuring"
	StatusCutting      Status = "cutting"
	StatusAssembly     Status = "assembly"
	StatusQualityCheck Status = "quality_check"
	StatusReady        Status = "ready"
	StatusCompleted    Status = "completed"
	StatusCancelled    Status = "cancelled"
)

// Statuses lists every status in workflow order.
var Statuses = []Status{
	StatusReceived,
	StatusMeasuring,
	StatusCutting,
	StatusAssembly,
	StatusQualityCheck,
	StatusReady,
	StatusCompleted,
	StatusCancelled,
}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal statuses are labels only; transitions out of them are still allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

var (
	ErrNotFound       = apperr.Wrap(apperr.ErrNotFound, "orders: order not found")
	ErrInvalidStatus  = apperr.Wrap(apperr.ErrValidation, "orders: invalid status")
	ErrDuplicateOrder = apperr.Wrap(apperr.ErrConflict, "orders: order number already exists")
)

// Order is a customer's framing job. Orders are never deleted.
type Order struct {
	ID          string `json:"id" db:"id"`
	OrderNumber string `json:"order_number" db:"order_number"`

	CustomerName  string `json:"customer_name" db:"customer_name"`
	CustomerPhone string `json:"customer_phone,omitempty" db:"customer_phone"`
	CustomerEmail string `json:"customer_email,omitempty" db:"customer_email"`

	FrameType           string `json:"frame_type" db:"frame_type"`
	Dimensions          string `json:"dimensions" db:"dimensions"`
	SpecialInstructions string `json:"special_instructions,omitempty" db:"special_instructions"`

	Status     Status `json:"status" db:"status"`
	SMSEnabled bool   `json:"sms_enabled" db:"sms_enabled"`

	// InternalNotes holds the latest staff note. Never shown to customers.
	InternalNotes string `json:"internal_notes,omitempty" db:"internal_notes"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// StatusChange is the audit row written with every status transition.
type StatusChange struct {
	ID          string    `json:"id" db:"id"`
	OrderID     string    `json:"order_id" db:"order_id"`
	OrderNumber string    `json:"order_number" db:"order_number"`
	OldStatus   Status    `json:"old_status" db:"old_status"`
	NewStatus   Status    `json:"new_status" db:"new_status"`
	Notes       string    `json:"notes,omitempty" db:"notes"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// PublicOrder is the projection served to unauthenticated customers.
type PublicOrder struct {
	OrderNumber  string    `json:"order_number"`
	CustomerName string    `json:"customer_name"`
	FrameType    string    `json:"frame_type"`
	Dimensions   string    `json:"dimensions"`
	Status       Status    `json:"status"`
	StatusLabel  string    `json:"status_label"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (o Order) Public() PublicOrder {
	return PublicOrder{
		OrderNumber:  o.OrderNumber,
		CustomerName: o.CustomerName,
		FrameType:    o.FrameType,
		Dimensions:   o.Dimensions,
		Status:       o.Status,
		StatusLabel:  o.Status.Label(),
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}

// Label is the customer-facing wording of a status.
func (s Status) Label() string {
	switch s {
	case StatusReceived:
		return "Order received"
	case StatusMeasuring:
		return "Measuring"
	case StatusCutting:
		return "Cutting materials"
	case StatusAssembly:
		return "Assembly"
	case StatusQualityCheck:
		return "Quality check"
	case StatusReady:
		return "Ready for pickup"
	case StatusCompleted:
		return "Completed"
	case StatusCancelled:
		return "Cancelled"
	default:
		return string(s)
	}
}

// CreateInput is the payload of a new order submission.
type CreateInput struct {
	CustomerName        string `json:"customer_name"`
	CustomerPhone       string `json:"customer_phone"`
	CustomerEmail       string `json:"customer_email"`
	FrameType           string `json:"frame_type"`
	Dimensions          string `json:"dimensions"`
	SpecialInstructions string `json:"special_instructions"`
	SMSEnabled          bool   `json:"sms_enabled"`
}

// StatusUpdate is the result of a successful status transition.
type StatusUpdate struct {
	Order  Order
	Change StatusChange
}
