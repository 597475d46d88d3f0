package models

import "time"

const StrikeTable = "rental_strikes"

// Strike is a penalty issued by a staff member against a user, optionally tied
// to the session that triggered it. Strikes are never auto-deleted.
type Strike struct {
	ID        string  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string  `gorm:"type:uuid;index;not null" json:"userId"`
	AdminID   string  `gorm:"type:uuid;index;not null" json:"adminId"`
	SessionID *string `gorm:"type:uuid;index" json:"sessionId,omitempty"`
	Reason    string  `gorm:"size:500;not null" json:"reason"`

	CreateTS  time.Time `gorm:"index;not null" json:"createTs"`
	IsDeleted bool      `gorm:"not null;default:false;index" json:"-"`
}

func (Strike) TableName() string { return StrikeTable }
