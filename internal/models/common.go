// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type ViewMode string

const (
	ViewModeFree    ViewMode = "free"
	ViewModeOneTime ViewMode = "one-time"
	ViewModeMonthly ViewMode = "monthly"
)

// Valid reports whether m is one of the three supported pricing modes.
func (m ViewMode) Valid() bool {
	switch m {
	case ViewModeFree, ViewModeOneTime, ViewModeMonthly:
		return true
	}
	return false
}

type ContentType string

const (
	ContentTypeStream ContentType = "stream"
	ContentTypeVideo  ContentType = "video"
)

type ReceiptStatus string

const (
	ReceiptStatusConfirmed ReceiptStatus = "confirmed"
	ReceiptStatusExpired   ReceiptStatus = "expired"
)

type PaymentKind string

const (
	PaymentKindAccess   PaymentKind = "access"
	PaymentKindDonation PaymentKind = "donation"
)
