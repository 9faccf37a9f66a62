package validation

import (
	"regexp"
	"time"
)

// Wallet addresses are 0x-prefixed hex, 40 nibbles.
var addressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

func IsValidAddress(addr string) bool {
	return addressRe.MatchString(addr)
}

// MinGraduationYear is the lowest year accepted at issuance.
const MinGraduationYear = 1900

// IsValidGraduationYear accepts years in [1900, current year + 1]; the upper
// slack covers certificates issued just ahead of a graduation date.
func IsValidGraduationYear(year int) bool {
	return year >= MinGraduationYear && year <= time.Now().Year()+1
}
