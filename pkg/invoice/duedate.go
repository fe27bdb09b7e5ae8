package invoice

import (
	"strings"
	"time"
)

const (
	DateLayout           = "2006-01-02"
	defaultDueDateOffset = 30
)

// Words for "week" and "month" in each supported language, as they appear in spoken due-date hints.
var (
	weekWords  = []string{"week", "minggu", "สัปดาห์", "อาทิตย์", "tuần", "linggo"}
	monthWords = []string{"month", "bulan", "เดือน", "tháng", "buwan"}
)

var absoluteDateLayouts = []string{
	DateLayout,
	time.RFC3339,
	"02/01/2006",
	"January 2, 2006",
	"2 January 2006",
}

// ResolveDueDate turns a spoken due-date hint into a calendar date relative to now.
// A hint that is neither relative nor a parseable date resolves to now + 30 days.
func ResolveDueDate(hint string, now time.Time) string {
	lowered := strings.ToLower(strings.TrimSpace(hint))
	switch {
	case containsAny(lowered, weekWords):
		return now.AddDate(0, 0, 7).Format(DateLayout)
	case containsAny(lowered, monthWords):
		return now.AddDate(0, 1, 0).Format(DateLayout)
	}

	trimmed := strings.TrimSpace(hint)
	for _, layout := range absoluteDateLayouts {
		parsed, err := time.Parse(layout, trimmed)
		if err == nil {
			return parsed.Format(DateLayout)
		}
	}
	return now.AddDate(0, 0, defaultDueDateOffset).Format(DateLayout)
}

func containsAny(s string, words []string) bool {
	for _, word := range words {
		if strings.Contains(s, word) {
			return true
		}
	}
	return false
}
