package catalog

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// DefaultCapacityMultiplier converts the advertised vacancy figure into the
// true allowed bookings. The storefront shows fewer seats than the venue
// holds, as an overbooking allowance for no-shows.
const DefaultCapacityMultiplier = 1.5

var vacanciesRe = regexp.MustCompile(`(\d+)\s*Vacancies`)

// CapacityConfig parameterizes capacity extraction from a course listing's
// short description.
type CapacityConfig struct {
	Multiplier float64
}

// DefaultCapacityConfig returns the production multiplier.
func DefaultCapacityConfig() CapacityConfig {
	return CapacityConfig{Multiplier: DefaultCapacityMultiplier}
}

// Parse extracts the sellable capacity from a course product's
// short_description. The description is human-authored storefront HTML; the
// vacancy statement lives in the last <br />-separated line of the first
// paragraph that mentions "vacancy", as "<n> Vacancies".
//
// Returns 0 when no vacancy statement is found, which disables the
// increase-on-withdrawal branch of the reconciler for that listing.
func (c CapacityConfig) Parse(shortDescription string) int {
	multiplier := c.Multiplier
	if multiplier <= 0 {
		multiplier = DefaultCapacityMultiplier
	}

	paragraphs := strings.Split(shortDescription, "<p>")
	if len(paragraphs) > 0 && paragraphs[0] == "" {
		paragraphs = paragraphs[1:]
	}

	// "vacanc" covers both "Vacancy" and "Vacancies" headings.
	var candidate string
	for _, paragraph := range paragraphs {
		if strings.Contains(strings.ToLower(paragraph), "vacanc") {
			candidate = paragraph
			break
		}
	}
	if candidate == "" {
		return 0
	}

	cleaned := strings.NewReplacer("\n", "", "<b>", "", "</b>", "").Replace(candidate)

	// The count normally sits on the last <br />-separated line; some
	// listings put it before a trailing note, so fall back to the whole
	// paragraph when the last line has no match.
	lines := strings.Split(cleaned, "<br />")
	last := strings.TrimSpace(lines[len(lines)-1])
	last = strings.TrimSpace(strings.ReplaceAll(last, "</p>", ""))

	m := vacanciesRe.FindStringSubmatch(last)
	if m == nil {
		whole := strings.TrimSpace(strings.ReplaceAll(cleaned, "</p>", ""))
		m = vacanciesRe.FindStringSubmatch(whole)
	}
	if m == nil {
		return 0
	}
	vacancies, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return int(math.Ceil(float64(vacancies) * multiplier))
}
