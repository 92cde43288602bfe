// internal/handlers/common.go
package handlers

import "strings"

// identityMatches compares wallet addresses ignoring case.
func identityMatches(a, b string) bool {
	return strings.EqualFold(a, b)
}
