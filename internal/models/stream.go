// internal/models/stream.go
package models

import (
	"strings"

	"github.com/lib/pq"
)

// Stream is a live channel configured by a creator. PlaybackID is the opaque
// identifier assigned by the video provider at creation; PaidAddresses is the
// append-only set of wallet addresses that have unlocked the stream.
type Stream struct {
	BaseModel
	PlaybackID    string          `json:"playback_id" gorm:"size:100;uniqueIndex;not null"`
	ProviderID    string          `json:"-" gorm:"size:100"`
	StreamKey     string          `json:"stream_key,omitempty" gorm:"size:100"`
	CreatorID     string          `json:"creator_id" gorm:"size:42;not null;index"`
	StreamName    string          `json:"stream_name" gorm:"size:255;not null"`
	Title         string          `json:"title" gorm:"size:255"`
	Description   string          `json:"description" gorm:"type:text"`
	ViewMode      ViewMode        `json:"view_mode" gorm:"type:varchar(10);default:'free';not null"`
	Amount        float64         `json:"amount" gorm:"type:decimal(10,2);default:0"`
	PaidAddresses pq.StringArray  `json:"paid_addresses" gorm:"type:text[]"`
	Record        bool            `json:"record" gorm:"default:false"`
	Logo          string          `json:"logo" gorm:"size:512"`
	BgColor       string          `json:"bgcolor" gorm:"size:32"`
	Color         string          `json:"color" gorm:"size:32"`
	FontSize      int             `json:"font_size"`
	FontFamily    string          `json:"font_family" gorm:"size:64"`
	SocialLinks   pq.StringArray  `json:"social_links" gorm:"type:text[]"`
	Donations     pq.Float64Array `json:"donations" gorm:"type:numeric[]"`
}

// HasPaidAddress reports whether addr is already in the paid set.
// Comparison is case-insensitive: wallet addresses arrive in mixed casing.
func (s *Stream) HasPaidAddress(addr string) bool {
	for _, a := range s.PaidAddresses {
		if strings.EqualFold(a, addr) {
			return true
		}
	}
	return false
}
