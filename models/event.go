package models

import (
	"time"

	"gorm.io/datatypes"
)

const EventTable = "rental_events"

// Audit action tags. One event is appended per successful mutation.
const (
	ActionCreateSession  = "CREATE_SESSION"
	ActionStartSession   = "START_SESSION"
	ActionReturnSession  = "RETURN_SESSION"
	ActionCancelSession  = "CANCEL_SESSION"
	ActionExpireSession  = "EXPIRE_SESSION"
	ActionOverdueSession = "OVERDUE_SESSION"
	ActionUpdateSession  = "UPDATE_SESSION"
	ActionDeleteSession  = "DELETE_SESSION"
	ActionCreateStrike   = "CREATE_STRIKE"
	ActionDeleteStrike   = "DELETE_STRIKE"
	ActionCreateItem     = "CREATE_ITEM"
	ActionUpdateItem     = "UPDATE_ITEM"
	ActionDeleteItem     = "DELETE_ITEM"
	ActionCreateItemType = "CREATE_ITEM_TYPE"
	ActionUpdateItemType = "UPDATE_ITEM_TYPE"
	ActionDeleteItemType = "DELETE_ITEM_TYPE"
)

// Event is an immutable audit entry. Rows are appended inside the transaction
// that performs the mutation and never updated afterwards.
type Event struct {
	ID         string            `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *string           `gorm:"type:uuid;index" json:"userId,omitempty"`
	AdminID    *string           `gorm:"type:uuid;index" json:"adminId,omitempty"`
	SessionID  *string           `gorm:"type:uuid;index" json:"sessionId,omitempty"`
	ActionType string            `gorm:"size:40;not null;index" json:"actionType"`
	Details    datatypes.JSONMap `json:"details,omitempty"`
	CreateTS   time.Time         `gorm:"index;not null" json:"createTs"`
}

func (Event) TableName() string { return EventTable }
