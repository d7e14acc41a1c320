// Package model defines the core domain models used throughout the application.
package model

import "strings"

// Product is one row of the imported catalog. Code and Name are
// trimmed once at load time; lookups are exact-match afterwards.
type Product struct {
	Code            string
	Name            string
	DefaultQuantity int
}

// NewProduct normalizes the raw cell values from a catalog row.
func NewProduct(code, name string, defaultQuantity int) Product {
	return Product{
		Code:            strings.TrimSpace(code),
		Name:            strings.TrimSpace(name),
		DefaultQuantity: defaultQuantity,
	}
}

// Valid reports whether the row carries enough data to be usable.
// Rows missing a code or a name are skipped during import.
func (p Product) Valid() bool {
	return p.Code != "" && p.Name != ""
}
