package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Method is one entry of the contraceptive method catalog. Methods are loaded
// once at startup and treated as read-only afterwards.
type Method struct {
	Name                  string      `json:"name"`
	HormoneType           HormoneType `json:"hormone_type,omitempty"`
	PerfectUseFailureRate string      `json:"perfect_use_failure_rate"`
	TypicalUseFailureRate string      `json:"typical_use_failure_rate"`
	TypicalFailurePercent *float64    `json:"typical_failure_percent,omitempty"`
	Pros                  []string    `json:"pros"`
	Cons                  []string    `json:"cons"`

	caps *MethodCapabilities
}

// MethodCapabilities are the rule-relevant facts about a method, computed once
// from its name, pros and failure rate when the catalog is loaded.
type MethodCapabilities struct {
	// CombinedOrCyclicHormonal covers pills, patches and rings.
	CombinedOrCyclicHormonal bool `json:"combined_or_cyclic_hormonal"`
	// ProgestinLongActing covers implants, hormonal IUDs and injections.
	ProgestinLongActing  bool `json:"progestin_long_acting"`
	Hormonal             bool `json:"hormonal"`
	AvoidsHormones       bool `json:"avoids_hormones"`
	QuickFertilityReturn bool `json:"quick_fertility_return"`
	HighlyEffective      bool `json:"highly_effective"`
	LightensPeriods      bool `json:"lightens_periods"`
	LowMaintenance       bool `json:"low_maintenance"`
}

// Name tokens. Matching is case-sensitive substring containment on the
// method name, except for the lowercase "hormonal" check.
var (
	cyclicHormonalTokens      = []string{"Pill", "Patch", "Ring"}
	progestinLongActingTokens = []string{"Implant", "Hormonal IUD", "Depo"}
	hormoneFreeTokens         = []string{"Copper IUD", "Condom", "Diaphragm", "Fertility Awareness"}
	quickReturnTokens         = []string{"Condom", "Diaphragm", "Fertility Awareness"}
	lowMaintenanceTokens      = []string{"years", "3 months"}
)

const (
	highlyEffectiveRate = "<1%"
	lighterPeriodsPro   = "Lighter periods"
)

// DeriveCapabilities computes the capability flags of a method.
func DeriveCapabilities(m Method) MethodCapabilities {
	c := MethodCapabilities{
		CombinedOrCyclicHormonal: containsAny(m.Name, cyclicHormonalTokens),
		ProgestinLongActing:      containsAny(m.Name, progestinLongActingTokens),
		AvoidsHormones:           containsAny(m.Name, hormoneFreeTokens),
		QuickFertilityReturn:     containsAny(m.Name, quickReturnTokens),
		HighlyEffective:          m.TypicalUseFailureRate == highlyEffectiveRate,
		LightensPeriods:          slices.Contains(m.Pros, lighterPeriodsPro),
	}
	c.Hormonal = strings.Contains(strings.ToLower(m.Name), "hormonal") ||
		c.CombinedOrCyclicHormonal || c.ProgestinLongActing
	for _, pro := range m.Pros {
		if containsAny(pro, lowMaintenanceTokens) {
			c.LowMaintenance = true
			break
		}
	}
	return c
}

// Capabilities returns the precomputed flags, deriving them on the fly for
// methods that were not produced by a catalog load.
func (m Method) Capabilities() MethodCapabilities {
	if m.caps != nil {
		return *m.caps
	}
	return DeriveCapabilities(m)
}

// WithCapabilities returns a copy of the method with its flags precomputed.
func (m Method) WithCapabilities() Method {
	caps := DeriveCapabilities(m)
	m.caps = &caps
	return m
}

// Validate checks the fields the classifier and the presentation layer rely on.
func (m Method) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidMethod)
	}
	if m.TypicalUseFailureRate == "" {
		return fmt.Errorf("%w: %s: typical use failure rate is required", ErrInvalidMethod, m.Name)
	}
	if m.Pros == nil {
		return fmt.Errorf("%w: %s: pros are required", ErrInvalidMethod, m.Name)
	}
	if !m.HormoneType.IsValid() {
		return fmt.Errorf("%w: %s: %q", ErrInvalidHormone, m.Name, m.HormoneType)
	}
	return nil
}

func containsAny(s string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}
