// internal/models/video.go
package models

import (
	"strings"

	"github.com/lib/pq"
)

// Video is an on-demand asset. Gating fields mirror Stream: the two are
// structurally identical as far as access decisions go.
type Video struct {
	BaseModel
	PlaybackID    string          `json:"playback_id" gorm:"size:100;uniqueIndex;not null"`
	AssetID       string          `json:"asset_id,omitempty" gorm:"size:100"`
	CreatorID     string          `json:"creator_id" gorm:"size:42;not null;index"`
	AssetName     string          `json:"asset_name" gorm:"size:255;not null"`
	Title         string          `json:"title" gorm:"size:255"`
	Description   string          `json:"description" gorm:"type:text"`
	ViewMode      ViewMode        `json:"view_mode" gorm:"type:varchar(10);default:'free';not null"`
	Amount        float64         `json:"amount" gorm:"type:decimal(10,2);default:0"`
	PaidAddresses pq.StringArray  `json:"paid_addresses" gorm:"type:text[]"`
	Logo          string          `json:"logo" gorm:"size:512"`
	BgColor       string          `json:"bgcolor" gorm:"size:32"`
	Color         string          `json:"color" gorm:"size:32"`
	FontSize      int             `json:"font_size"`
	FontFamily    string          `json:"font_family" gorm:"size:64"`
	SocialLinks   pq.StringArray  `json:"social_links" gorm:"type:text[]"`
	Donations     pq.Float64Array `json:"donations" gorm:"type:numeric[]"`
	Disabled      bool            `json:"disabled" gorm:"default:false"`
}

func (v *Video) HasPaidAddress(addr string) bool {
	for _, a := range v.PaidAddresses {
		if strings.EqualFold(a, addr) {
			return true
		}
	}
	return false
}
