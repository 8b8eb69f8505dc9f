package catalog

import "errors"

var (
	ErrFeatureNotFound = errors.New("catalog feature not found")
	ErrPlanNotFound    = errors.New("catalog plan not found")
	ErrEmptyRef        = errors.New("catalog reference carries no identity")

	ErrInvalidCatalogFile = errors.New("invalid catalog file")
)
