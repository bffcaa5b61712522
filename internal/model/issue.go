package model

import "time"

// Issue is one purchasable magazine issue. The PDF archive and the cover
// image live in object storage under Key; URL and CoverImage are the derived
// public locations of those two objects.
type Issue struct {
	IssueID          int64     `bson:"issueId" json:"issueId"`
	Title            string    `bson:"title" json:"title"`
	Key              string    `bson:"key" json:"key"`
	Description      string    `bson:"description" json:"description"`
	Author           string    `bson:"author" json:"author"`
	URL              string    `bson:"url" json:"url"`
	CoverImage       string    `bson:"coverImage" json:"coverImage"`
	Categories       []string  `bson:"categories,omitempty" json:"categories,omitempty"`
	AvailableForSale bool      `bson:"availableForSale" json:"availableForSale"`
	IssueOrder       int       `bson:"issueOrder" json:"issueOrder"`
	TotalViews       int64     `bson:"totalViews" json:"totalViews"`
	Price            float64   `bson:"price" json:"price"`
	CreatedAt        time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time `bson:"updatedAt" json:"updatedAt"`

	// Paid is computed at listing time against the caller's subscription
	// window; it is never stored.
	Paid bool `bson:"-" json:"paid"`
}

// ViewsRequest is the body of PUT /issue-service/updateViews.
type ViewsRequest struct {
	IssueID int64 `json:"issueId" validate:"required"`
}
