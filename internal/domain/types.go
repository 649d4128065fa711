// Package domain contains the core entities shared by the contraceptive method
// recommendation engine, its storage layers and its transports.
//
// The engine is a deterministic rule matcher over a static catalog. Nothing in
// this package carries clinical validation; tiers express rule outcomes only.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Tier is the recommendation bucket a method is placed in for one submission.
type Tier string

const (
	RECOMMENDED     Tier = "recommended"
	CAUTION         Tier = "caution"
	CONTRAINDICATED Tier = "contraindicated"
)

// Tiers lists every tier in presentation order.
var Tiers = []Tier{RECOMMENDED, CAUTION, CONTRAINDICATED}

// Priority is the user's stated primary preference. Values are the exact
// answer strings offered by the questionnaire; anything else is carried
// through unchanged and matches no preference rule.
type Priority string

const (
	HIGHEST_EFFECTIVENESS  Priority = "Highest effectiveness"
	AVOIDING_HORMONES      Priority = "Avoiding hormones"
	MANAGING_PERIODS       Priority = "Managing periods"
	LOW_MAINTENANCE        Priority = "Low maintenance (set and forget)"
	QUICK_FERTILITY_RETURN Priority = "Quick return to fertility"
)

// HormoneType is the hormonal class of a method. Non-hormonal methods carry
// the empty value.
type HormoneType string

const (
	NON_HORMONAL   HormoneType = ""
	COMBINED       HormoneType = "combined"
	PROGESTIN_ONLY HormoneType = "progestin_only"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTier       = errors.New("invalid recommendation tier")
	ErrInvalidMethod     = errors.New("invalid contraceptive method")
	ErrDuplicateMethod   = errors.New("duplicate method name")
	ErrInvalidCatalog    = errors.New("invalid method catalog")
	ErrInvalidHormone    = errors.New("invalid hormone type")
	ErrHistoryDisabled   = errors.New("recommendation history is disabled")
	ErrInvalidIdentifier = errors.New("invalid identifier")
)

// IsValid reports whether the tier is one of the three known buckets.
func (t Tier) IsValid() bool {
	switch t {
	case RECOMMENDED, CAUTION, CONTRAINDICATED:
		return true
	default:
		return false
	}
}

func (t Tier) String() string {
	return string(t)
}

// Label returns the heading used when the tier is rendered for people.
func (t Tier) Label() string {
	switch t {
	case RECOMMENDED:
		return "Recommended for you"
	case CAUTION:
		return "Use with caution"
	case CONTRAINDICATED:
		return "Not recommended"
	default:
		return "Unknown"
	}
}

// ParseTier converts a string into a Tier, ignoring case and surrounding
// whitespace.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidTier, s)
	}
	return t, nil
}

// IsKnown reports whether the priority is one the preference rules recognize.
func (p Priority) IsKnown() bool {
	switch p {
	case HIGHEST_EFFECTIVENESS, AVOIDING_HORMONES, MANAGING_PERIODS, LOW_MAINTENANCE, QUICK_FERTILITY_RETURN:
		return true
	default:
		return false
	}
}

func (p Priority) String() string {
	return string(p)
}

// LogFields returns structured logging fields for the priority.
func (p Priority) LogFields() map[string]any {
	return map[string]any{
		"priority":       string(p),
		"priority_known": p.IsKnown(),
	}
}

// IsValid reports whether the hormone type is known. The empty value is valid
// and means the method carries no hormones.
func (h HormoneType) IsValid() bool {
	switch h {
	case NON_HORMONAL, COMBINED, PROGESTIN_ONLY:
		return true
	default:
		return false
	}
}

func (h HormoneType) String() string {
	if h == NON_HORMONAL {
		return "none"
	}
	return string(h)
}
