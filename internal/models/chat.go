// internal/models/chat.go
package models

import "time"

// ChatMessage is one message in a stream's chat room. Sender is the
// display form (shortened wallet address or display name); WalletAddress is
// the full identity of the author.
type ChatMessage struct {
	BaseModel
	StreamID      string    `json:"stream_id" gorm:"size:100;not null;index"`
	Sender        string    `json:"sender" gorm:"size:100;not null"`
	WalletAddress string    `json:"wallet_address" gorm:"size:42;not null"`
	Message       string    `json:"message" gorm:"type:text;not null"`
	Timestamp     time.Time `json:"timestamp" gorm:"index"`
}
