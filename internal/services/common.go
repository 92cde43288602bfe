// internal/services/common.go
package services

import "gorm.io/gorm/clause"

// forUpdate row-locks the selected rows for the duration of the enclosing
// transaction. Used by the idempotent append paths so concurrent payments
// against the same content serialize instead of clobbering the array.
func forUpdate() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}
