package models

import "time"

const (
	ItemTypeTable = "rental_item_types"
	ItemTable     = "rental_items"
)

// ItemType is a rentable category. It is never allocated itself; allocation
// always picks one of its Items.
type ItemType struct {
	ID          string  `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string  `gorm:"size:200;not null" json:"name"`
	ImageURL    *string `gorm:"size:500" json:"imageUrl,omitempty"`
	Description *string `json:"description,omitempty"`

	IsDeleted bool      `gorm:"not null;default:false;index" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Items []Item `gorm:"foreignKey:TypeID" json:"-"`

	// Read-time aggregates, not columns.
	FreeItemsCount int64 `gorm:"-" json:"freeItemsCount"`
}

// Item is one physical unit of an ItemType. IsAvailable is true exactly when
// no session in a holding status (RESERVED/ACTIVE/OVERDUE) references it; the
// flag is flipped only inside the transaction that moves the session.
type Item struct {
	ID          string `gorm:"type:uuid;primaryKey" json:"id"`
	TypeID      string `gorm:"type:uuid;index;not null" json:"typeId"`
	IsAvailable bool   `gorm:"not null;default:false" json:"isAvailable"`

	IsDeleted bool      `gorm:"not null;default:false;index" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (ItemType) TableName() string { return ItemTypeTable }
func (Item) TableName() string     { return ItemTable }
