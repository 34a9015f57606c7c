package advanced

import (
	"strings"
	"unicode"
)

const (
	confidenceExact       = 1.0
	confidenceTokenSet    = 0.8
	confidenceContainment = 0.6
	minTrigramSimilarity  = 0.5
)

// LaborRecord is one row of the payroll export.
type LaborRecord struct {
	Employee      string
	NetSales      float64
	TotalPay      float64
	RegularHours  float64
	OvertimeHours float64
	HasRegular    bool
	HasOvertime   bool
}

// Hours is regular plus overtime when overtime is reported, otherwise
// regular hours alone.
func (l LaborRecord) Hours() (float64, bool) {
	switch {
	case l.HasOvertime:
		return l.RegularHours + l.OvertimeHours, true
	case l.HasRegular:
		return l.RegularHours, true
	}
	return 0, false
}

// MatchEmployeeName scores a POS server name ("First Last") against a
// payroll name ("Last, First" or "First Last").
//
//	1.0  same full name
//	0.8  same name tokens in another order
//	0.6+ the first or last name appears as a whole token of the server
//	     name, or the server name is part of "first last"
//	J    trigram Jaccard similarity J when J >= 0.5
//
// ok is false when none of these hold.
func MatchEmployeeName(server, laborName string) (float64, bool) {
	s := normalizeName(server)
	full, first, last := splitLaborName(laborName)
	if s == "" || full == "" {
		return 0, false
	}
	if s == full {
		return confidenceExact, true
	}
	serverTokens := strings.Fields(s)
	if sameTokens(serverTokens, strings.Fields(full)) {
		return confidenceTokenSet, true
	}

	similarity := trigramJaccard(s, full)
	contained := strings.Contains(full, s) ||
		(first != "" && hasToken(serverTokens, first)) ||
		(last != "" && hasToken(serverTokens, last))
	if contained {
		if similarity > confidenceContainment {
			return similarity, true
		}
		return confidenceContainment, true
	}
	if similarity >= minTrigramSimilarity {
		return similarity, true
	}
	return 0, false
}

// BestLaborMatch returns the highest-confidence record. Ties keep the
// earlier record.
func BestLaborMatch(server string, records []LaborRecord) (LaborRecord, float64, bool) {
	best := -1
	bestScore := 0.0
	for i, rec := range records {
		score, ok := MatchEmployeeName(server, rec.Employee)
		if !ok {
			continue
		}
		if best < 0 || score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return LaborRecord{}, 0, false
	}
	return records[best], bestScore, true
}

// splitLaborName returns the normalized "first last" form plus the parts
// when the name is written "Last, First".
func splitLaborName(name string) (full, first, last string) {
	if idx := strings.Index(name, ","); idx >= 0 {
		last = normalizeName(name[:idx])
		first = normalizeName(name[idx+1:])
		full = strings.TrimSpace(first + " " + last)
		return full, first, last
	}
	full = normalizeName(name)
	tokens := strings.Fields(full)
	if len(tokens) > 0 {
		first = tokens[0]
		last = tokens[len(tokens)-1]
	}
	return full, first, last
}

func normalizeName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '.' || r == '_':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func hasToken(tokens []string, name string) bool {
	for _, part := range strings.Fields(name) {
		found := false
		for _, t := range tokens {
			if t == part {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func sameTokens(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	counts := map[string]int{}
	for _, t := range a {
		counts[t]++
	}
	for _, t := range b {
		counts[t]--
		if counts[t] < 0 {
			return false
		}
	}
	return true
}

func trigrams(s string) map[string]struct{} {
	padded := []rune("  " + s + " ")
	out := make(map[string]struct{}, len(padded))
	for i := 0; i+3 <= len(padded); i++ {
		out[string(padded[i:i+3])] = struct{}{}
	}
	return out
}

func trigramJaccard(a, b string) float64 {
	ta, tb := trigrams(a), trigrams(b)
	if len(ta) == 0 && len(tb) == 0 {
		return 0
	}
	inter := 0
	for g := range ta {
		if _, ok := tb[g]; ok {
			inter++
		}
	}
	union := len(ta) + len(tb) - inter
	return float64(inter) / float64(union)
}
