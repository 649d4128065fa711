// Package report renders recommendations as plain text for terminals and
// tool responses.
package report

import (
	"fmt"
	"strings"

	"github.com/contraceptive-compass-server/internal/domain"
)

// RecommendationLine renders one bullet. The typical failure rate is only
// shown when includeFailure is set.
func RecommendationLine(m domain.Method, includeFailure bool) string {
	if includeFailure {
		return fmt.Sprintf("- %s (%s typical failure)", m.Name, m.TypicalUseFailureRate)
	}
	return "- " + m.Name
}

// MethodCard renders the full description of a method.
func MethodCard(m domain.Method) string {
	var b strings.Builder

	b.WriteString(m.Name)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", len(m.Name)))
	b.WriteString("\n")
	if m.HormoneType != domain.NON_HORMONAL {
		fmt.Fprintf(&b, "Hormones: %s\n", strings.ReplaceAll(m.HormoneType.String(), "_", " "))
	}
	fmt.Fprintf(&b, "Perfect use: %s failure\n", m.PerfectUseFailureRate)
	fmt.Fprintf(&b, "Typical use: %s failure\n", m.TypicalUseFailureRate)

	writeList(&b, "Pros", m.Pros)
	writeList(&b, "Cons", m.Cons)

	return strings.TrimRight(b.String(), "\n")
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "  + %s\n", item)
	}
}

// TelehealthLink renders a provider as a markdown link.
func TelehealthLink(o domain.TelehealthOption) string {
	return fmt.Sprintf("[%s →](%s)", o.Name, o.URL)
}

// Summary renders all three tiers. Empty tiers are omitted.
func Summary(rec *domain.Recommendation) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Recommendation %s (priority: %s)\n", rec.ID, rec.Answers.Priority)

	for _, tier := range domain.Tiers {
		bucket := rec.Result.Bucket(tier)
		if len(bucket) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s:\n", tier.Label())
		for _, m := range bucket {
			b.WriteString(RecommendationLine(m, tier == domain.RECOMMENDED))
			b.WriteString("\n")
		}
	}

	if rec.Result.Total() == 0 {
		b.WriteString("\nNo methods in catalog.\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

// TelehealthList renders every provider, one link per line.
func TelehealthList(options []domain.TelehealthOption) string {
	lines := make([]string, 0, len(options))
	for _, o := range options {
		lines = append(lines, "- "+TelehealthLink(o))
	}
	return strings.Join(lines, "\n")
}
