package model

// Subscription grants a user paid-content access until EndDate. Dates are
// stored as strings in the service's fixed time layout.
type Subscription struct {
	SubscriptionID string  `bson:"subscriptionId" json:"subscriptionId"`
	UserID         int64   `bson:"userId" json:"userId"`
	Type           string  `bson:"type" json:"type"`
	StartDate      string  `bson:"startDate" json:"startDate"`
	EndDate        string  `bson:"endDate" json:"endDate"`
	PurchaseDate   string  `bson:"purchaseDate" json:"purchaseDate"`
	Amount         float64 `bson:"amount" json:"amount"`

	// Status is a human-readable summary of the remaining window,
	// computed on the way out.
	Status string `bson:"-" json:"status,omitempty"`
}

// SubscriptionRequest is the create/renew body.
type SubscriptionRequest struct {
	UserID       int64   `json:"userId" validate:"required"`
	Amount       float64 `json:"amount"`
	StartDate    string  `json:"startDate"`
	EndDate      string  `json:"endDate"`
	PurchaseDate string  `json:"purchaseDate"`
}
