// Package slug generates URL-safe identifiers from human-readable names.
//
// It is used by the catalog package to default plan and feature slugs
// from their display names:
//
//	slug.Make("Pro Plan (Monthly)") // "pro-plan-monthly"
//	slug.Make("Café & Crème")       // "cafe-creme"
//
// Options control the separator and a maximum length:
//
//	slug.Make("A very long plan name", slug.MaxLength(10))
package slug
