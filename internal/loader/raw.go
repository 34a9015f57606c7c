package loader

import (
	"context"
	"strings"
	"time"

	"tap-analytics-service/internal/daterange"
	"tap-analytics-service/internal/storage"

	"go.uber.org/zap"
)

const headerSniffBytes = 1024

var (
	derivedPatterns = []string{
		"menu_volatility", "waste_efficiency", "hourly_analysis", "dow_analysis",
		"attachment", "analysis", "summary", "report",
		"bottle_conversion", "discount_analysis",
	}
	rawPatterns = []string{"orders", "checks", "transactions", "export"}

	sniffDateAliases = []string{"sent date", "order date", "business date", "date", "order_date", "business_date", "sent_date"}
	sniffIDAliases   = []string{
		"order id", "check id", "ticket id", "receipt number", "transaction id",
		"order_id", "check_id", "ticket_id", "receipt_number", "transaction_id",
	}
)

func monthName(m time.Month) string {
	return strings.ToLower(m.String())
}

func containsMonth(name string) bool {
	for m := time.January; m <= time.December; m++ {
		if strings.Contains(name, monthName(m)) {
			return true
		}
	}
	return false
}

func containsAny(s string, patterns []string) (string, bool) {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return p, true
		}
	}
	return "", false
}

// IsRawTransactionFile separates POS exports from files this service (or a
// previous tool) derived from them. Names decide first; otherwise the first
// KiB is read and the header must carry both a date and an id column.
func (l *Loader) IsRawTransactionFile(ctx context.Context, file storage.ObjectInfo) bool {
	name := strings.ToLower(file.Name())
	if p, ok := containsAny(name, derivedPatterns); ok {
		l.log.Debug("skip derived file", zap.String("key", file.Key), zap.String("pattern", p))
		return false
	}
	if containsMonth(name) {
		return true
	}
	if _, ok := containsAny(name, rawPatterns); ok {
		return true
	}

	prefix, err := l.src.GetObjectRange(ctx, file.Key, headerSniffBytes)
	if err != nil {
		l.log.Debug("header sniff failed", zap.String("key", file.Key), zap.Error(err))
		return false
	}
	header := strings.ToLower(headerLine(prefix))
	_, hasDate := containsAny(header, sniffDateAliases)
	_, hasID := containsAny(header, sniffIDAliases)
	if hasDate && hasID {
		l.log.Info("raw file confirmed by header", zap.String("key", file.Key))
		return true
	}
	l.log.Debug("skip non-transaction file",
		zap.String("key", file.Key),
		zap.Bool("has_date", hasDate),
		zap.Bool("has_id", hasID),
	)
	return false
}

// FilterRawFiles keeps raw exports and, when a window is given, only the
// month files that intersect it.
func (l *Loader) FilterRawFiles(ctx context.Context, files []storage.ObjectInfo, window *daterange.Window) []storage.ObjectInfo {
	var raw []storage.ObjectInfo
	for _, f := range files {
		if l.IsRawTransactionFile(ctx, f) {
			raw = append(raw, f)
		}
	}
	l.log.Info("raw files selected", zap.Int("raw", len(raw)), zap.Int("listed", len(files)))
	if window == nil {
		return raw
	}

	months := daterange.MonthsInRange(window.Start, window.End)
	if len(months) == 0 {
		return raw
	}
	var out []storage.ObjectInfo
	for _, f := range raw {
		name := strings.ToLower(f.Name())
		for _, m := range months {
			if strings.Contains(name, monthName(m)) {
				out = append(out, f)
				break
			}
		}
	}
	l.log.Info("month filter applied", zap.Int("files", len(out)), zap.Int("months", len(months)))
	return out
}
