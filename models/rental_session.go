package models

import "time"

const SessionTable = "rental_sessions"

// RentStatus is the lifecycle state of a RentalSession.
//
//	RESERVED -> ACTIVE | CANCELED | EXPIRED
//	ACTIVE   -> OVERDUE | RETURNED
//	OVERDUE  -> RETURNED | DISMISSED
//
// Transitions never move backward.
type RentStatus string

const (
	StatusReserved  RentStatus = "reserved"
	StatusActive    RentStatus = "active"
	StatusCanceled  RentStatus = "canceled"
	StatusOverdue   RentStatus = "overdue"
	StatusReturned  RentStatus = "returned"
	StatusDismissed RentStatus = "dismissed"
	StatusExpired   RentStatus = "expired"
)

// HoldingStatuses are the states in which a session keeps its item occupied.
var HoldingStatuses = []RentStatus{StatusReserved, StatusActive, StatusOverdue}

// ChurnStatuses are the reserve-and-abandon outcomes the rate limiter counts.
var ChurnStatuses = []RentStatus{StatusExpired, StatusCanceled}

func (s RentStatus) Holding() bool {
	return s == StatusReserved || s == StatusActive || s == StatusOverdue
}

func (s RentStatus) Valid() bool {
	switch s {
	case StatusReserved, StatusActive, StatusCanceled, StatusOverdue,
		StatusReturned, StatusDismissed, StatusExpired:
		return true
	}
	return false
}

// RentalSession is one reservation/loan lifecycle instance. Status and the
// timestamp columns are mutated only by the rental service; the availability
// flag of the referenced item is updated in the same transaction.
type RentalSession struct {
	ID     string `gorm:"type:uuid;primaryKey" json:"id"`
	UserID string `gorm:"type:uuid;index;not null" json:"userId"`
	ItemID string `gorm:"type:uuid;index;not null" json:"itemId"`

	AdminOpenID  *string `gorm:"type:uuid" json:"adminOpenId,omitempty"`
	AdminCloseID *string `gorm:"type:uuid" json:"adminCloseId,omitempty"`

	Status RentStatus `gorm:"size:20;not null;index" json:"status"`

	ReservationTS  time.Time  `gorm:"index;not null" json:"reservationTs"`
	StartTS        *time.Time `json:"startTs,omitempty"`
	EndTS          *time.Time `json:"endTs,omitempty"`
	ActualReturnTS *time.Time `json:"actualReturnTs,omitempty"`
	DeadlineTS     *time.Time `gorm:"index" json:"deadlineTs,omitempty"`

	// Contact info captured at reservation time.
	UserPhone    *string `gorm:"size:32" json:"userPhone,omitempty"`
	UserFullname *string `gorm:"size:255" json:"userFullname,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Read-time joins, not columns.
	ItemTypeID string  `gorm:"-" json:"itemTypeId,omitempty"`
	StrikeID   *string `gorm:"-" json:"strikeId,omitempty"`
}

func (RentalSession) TableName() string { return SessionTable }
