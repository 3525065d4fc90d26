// Package model holds the data records shared across the service layers.
package model

// ProductData identifies a product fetched from the OMIE ERP. It is
// immutable once fetched: a new search replaces the record wholesale.
type ProductData struct {
	Code        string  `json:"code"`
	Description string  `json:"description"`
	// AverageCost is OMIE's nCMC, the weighted average acquisition cost.
	AverageCost float64 `json:"averageCost"`
	Stock       int     `json:"stock"`
}
