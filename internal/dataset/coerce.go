package dataset

import (
	"math"
	"strconv"
	"strings"
	"time"
)

var currencyReplacer = strings.NewReplacer("$", "", ",", "", " ", "", "€", "", "£", "")

// IsNull reports whether a cell counts as missing.
func IsNull(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		s := strings.TrimSpace(t)
		return s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "null") || strings.EqualFold(s, "none")
	case float64:
		return math.IsNaN(t)
	case time.Time:
		return t.IsZero()
	}
	return false
}

// Float coerces a cell to a number. Currency symbols, thousands separators
// and accounting-style "(12.50)" negatives are accepted.
func Float(v any) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case string:
		return parseAmount(t)
	}
	return 0, false
}

// FloatOr0 is Float with missing values counted as zero, the way sums treat them.
func FloatOr0(v any) float64 {
	f, _ := Float(v)
	return f
}

func parseAmount(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = currencyReplacer.Replace(s)
	if strings.HasPrefix(s, "-$") {
		s = "-" + s[2:]
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if negative {
		f = -f
	}
	return f, true
}

// Bool reports a cell's boolean value when it is boolean-typed or a boolean
// literal ("true", "False", "yes", "N").
func Bool(v any) (value bool, ok bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "t", "yes", "y":
			return true, true
		case "false", "f", "no", "n":
			return false, true
		}
	}
	return false, false
}

// Truthy treats booleans as-is and any other non-null, non-zero value as set.
func Truthy(v any) bool {
	if IsNull(v) {
		return false
	}
	if b, ok := Bool(v); ok {
		return b
	}
	if f, ok := Float(v); ok {
		return f != 0
	}
	return true
}

// Text renders a cell as a trimmed string. Missing cells report false.
func Text(v any) (string, bool) {
	if IsNull(v) {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case bool:
		if t {
			return "True", true
		}
		return "False", true
	case time.Time:
		return t.Format(time.RFC3339), true
	}
	return "", false
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"1/2/2006 3:04:05 pm",
	"1/2/2006 3:04 pm",
	"1/2/06 3:04 PM",
	"1/2/06 3:04 pm",
	"1/2/06 15:04",
	"1/2/2006",
	"1/2/06",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"Jan 2, 2006 3:04 PM",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
}

// Time parses a cell with the export date layouts. Values without a zone
// are read as UTC.
func Time(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return time.Time{}, false
		}
		return t, true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

// GroupKey is the string form used to bucket cells. Missing cells do not
// form a group.
func GroupKey(v any) (string, bool) {
	return Text(v)
}
