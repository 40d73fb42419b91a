// Package api contains the request contracts of the PriceScope HTTP API.
// Version v1 represents the current stable API version.
package api

// ReportRequest is the body of every POST /api/reports/* call
type ReportRequest struct {
	UserID string `json:"user_id" validate:"required,max=128"`
	Name   string `json:"name" validate:"max=200"`
	Email  string `json:"email" validate:"omitempty,email"`

	// Column is the numeric column summarized, predicted_price when empty
	Column string `json:"column,omitempty" validate:"omitempty,column"`

	// Filters maps a column to its accepted values. An empty list leaves
	// the column unfiltered.
	Filters map[string][]string `json:"filters,omitempty" validate:"omitempty,dive,keys,column,endkeys,dive,max=256"`

	PreviewLimit int `json:"preview_limit,omitempty" validate:"gte=0,lte=50"`
}
