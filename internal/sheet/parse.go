package sheet

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

var currencyPattern = regexp.MustCompile(`[\d,.]+`)

// ParseBool reads a cell as a boolean. Empty or unparsable cells yield false;
// unparsable non-empty cells are logged.
func ParseBool(value, column string) bool {
	v := strings.TrimSpace(value)
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(strings.ToLower(v))
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"column": column,
			"value":  value,
		}).Warn("Cell is not a valid boolean, defaulting to false")
		return false
	}
	return b
}

// ParseInt reads a cell as an integer. Empty cells yield nil; unparsable
// non-empty cells yield nil and are logged.
func ParseInt(value, column string) *int64 {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"column": column,
			"value":  value,
		}).Warn("Cell is not a valid integer, ignoring")
		return nil
	}
	return &n
}

// ParseFloat reads a cell as a float. Empty cells yield nil; unparsable
// non-empty cells yield nil and are logged.
func ParseFloat(value, column string) *float64 {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"column": column,
			"value":  value,
		}).Warn("Cell is not a valid number, ignoring")
		return nil
	}
	return &f
}

// ParseCurrency extracts a monetary amount from a cell that may carry a
// currency symbol or grouping commas, for example "$1,299.99". The first run
// of digits, commas and dots is taken and commas are stripped before parsing.
func ParseCurrency(value, column string) *float64 {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil
	}
	match := currencyPattern.FindString(v)
	if match == "" {
		logrus.WithFields(logrus.Fields{
			"column": column,
			"value":  value,
		}).Warn("Cell does not contain a currency amount, ignoring")
		return nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"column": column,
			"value":  value,
		}).Warn("Cell does not contain a currency amount, ignoring")
		return nil
	}
	return &f
}

// ColumnLetter converts a zero-based column index to its spreadsheet letter:
// 0 -> A, 25 -> Z, 26 -> AA, 701 -> ZZ.
func ColumnLetter(index int) string {
	letters := ""
	n := index
	for n >= 0 {
		letters = string(rune('A'+n%26)) + letters
		n = n/26 - 1
	}
	return letters
}
