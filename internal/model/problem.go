package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Problem difficulties.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Problem statuses.
const (
	StatusNew        = "new"
	StatusAttempting = "attempting"
	StatusAttempted  = "attempted"
)

// Problem is a tracked coding problem.
//
// Rows are never removed; IsDeleted hides them from reads.
type Problem struct {
	ID          string    `gorm:"type:char(36);primaryKey" json:"_id"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Title       string     `gorm:"type:varchar(255);not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Difficulty  string     `gorm:"type:varchar(16);not null" json:"difficulty"` // easy / medium / hard
	Pattern     StringList `gorm:"type:json" json:"pattern"`                   // at least one
	Companies   StringList `gorm:"type:json" json:"companies"`
	Link        string     `gorm:"type:varchar(512);not null" json:"link"`
	Status      string     `gorm:"type:varchar(16);default:new" json:"status"` // new / attempting / attempted
	Solution    string     `gorm:"type:text" json:"solution"`
	Favourite   bool       `gorm:"default:false" json:"favourite"`

	CreatedBy string `gorm:"type:char(36);index" json:"createdBy"` // account id
	UpdatedBy string `gorm:"type:char(36)" json:"updatedBy"`       // account id
	IsDeleted bool   `gorm:"index;default:false" json:"isDeleted"`
}

// BeforeCreate assigns an id and the default status.
func (p *Problem) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = StatusNew
	}
	return nil
}

// ValidDifficulty reports whether d is a known difficulty.
func ValidDifficulty(d string) bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// ValidStatus reports whether s is a known status.
func ValidStatus(s string) bool {
	switch s {
	case StatusNew, StatusAttempting, StatusAttempted:
		return true
	}
	return false
}

// StringList is stored as a JSON array column.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan string list: unsupported type %T", src)
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("scan string list: %w", err)
	}
	*l = out
	return nil
}
