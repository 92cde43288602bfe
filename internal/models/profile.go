// internal/models/profile.go
package models

import (
	"strings"

	"github.com/lib/pq"
)

// Profile is a viewer/creator profile keyed by wallet address. Channels is
// the ordered list of creator ids the profile follows; an id appears at most
// once.
type Profile struct {
	BaseModel
	CreatorID   string         `json:"creator_id" gorm:"size:42;uniqueIndex;not null"`
	DisplayName string         `json:"display_name" gorm:"size:100"`
	Bio         string         `json:"bio" gorm:"type:text"`
	Avatar      string         `json:"avatar" gorm:"size:512"`
	SocialLinks pq.StringArray `json:"social_links" gorm:"type:text[]"`
	Channels    pq.StringArray `json:"channels" gorm:"type:text[]"`
}

// Subscribed reports whether the profile already follows creatorID.
func (p *Profile) Subscribed(creatorID string) bool {
	for _, c := range p.Channels {
		if strings.EqualFold(c, creatorID) {
			return true
		}
	}
	return false
}
