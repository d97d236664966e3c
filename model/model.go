package model

import (
	"time"
)

type Member struct {
	ID        int64  `gorm:"primaryKey"`
	Name      string `gorm:"uniqueIndex;not null"`
	IsAdmin   bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
}

// Binding links an external chat identity (e.g. "tg:100") to a member.
// Both sides are unique: the mapping is one-to-one.
type Binding struct {
	ExternalID string `gorm:"primaryKey"`
	MemberID   int64  `gorm:"uniqueIndex;not null"`
	CreatedAt  time.Time
}

// Award is one "plus". Rows are never updated or deleted.
type Award struct {
	ID           int64     `gorm:"primaryKey"`
	FromMemberID int64     `gorm:"index;not null"`
	ToMemberID   int64     `gorm:"index;not null"`
	Reason       string    `gorm:"not null"`
	Comment      *string   // max 300 chars
	CreatedAt    time.Time `gorm:"index"`
}

type ShopItem struct {
	Key        string `gorm:"column:item_key;primaryKey"`
	Name       string `gorm:"not null"`
	Price      int    `gorm:"not null"`
	StockLimit *int   // nil = unlimited
}

// Purchase snapshots item name and price so catalog edits don't rewrite history.
type Purchase struct {
	ID        int64  `gorm:"primaryKey"`
	MemberID  int64  `gorm:"index;not null"`
	ItemKey   string `gorm:"index;not null"`
	ItemName  string `gorm:"not null"`
	Price     int    `gorm:"not null"`
	CreatedAt time.Time
}

// All lists the models to migrate.
func All() []any {
	return []any{&Member{}, &Binding{}, &Award{}, &ShopItem{}, &Purchase{}}
}
