package ledger

import (
	"regexp"
	"strconv"
)

// orderRefPattern matches the order token banks carry in free-text transfer
// memos, e.g. "transfer for DH42 order" or "ORDER1234 lunch".
var orderRefPattern = regexp.MustCompile(`(?i)(?:DH|ORDER)(\d+)`)

// ExtractOrderNumber pulls the first order reference out of a transfer memo.
// Returns nil when no parseable token is present.
func ExtractOrderNumber(memo string) *int64 {
	match := orderRefPattern.FindStringSubmatch(memo)
	if match == nil {
		return nil
	}
	number, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return nil
	}
	return &number
}
