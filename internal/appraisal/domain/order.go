package domain

import "time"

type OrderStatus string

const (
	OrderNew        OrderStatus = "new"
	OrderAssigned   OrderStatus = "assigned"
	OrderInProgress OrderStatus = "in_progress"
	OrderReview     OrderStatus = "review"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderNew, OrderAssigned, OrderInProgress, OrderReview, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

// Property is the subject of an appraisal, stored inline on the order.
type Property struct {
	Address    string
	City       string
	State      string
	PostalCode string
	Type       string // residential, commercial, land, ...
}

// Order is an appraisal engagement for a client.
type Order struct {
	ID             string
	OrganizationID string
	ClientID       string
	Reference      string
	Property       Property
	Status         OrderStatus
	AssigneeID     *string
	DueDate        *time.Time
	FeeCents       int64
	Notes          string
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
