package models

import (
	"time"

	"gorm.io/datatypes"
)

// User is created by registration or by the first Yandex sign-in for an
// external identity. Users are never deleted.
type User struct {
	ID        int64           `gorm:"primaryKey" json:"id"`
	Email     string          `gorm:"size:255;not null;uniqueIndex" json:"email"`
	FirstName *string         `gorm:"size:255" json:"first_name"`
	LastName  *string         `gorm:"size:255" json:"last_name"`
	BirthDate *datatypes.Date `json:"birth_date"`
	YandexID  *string         `gorm:"size:64;uniqueIndex" json:"-"`
	CreatedAt time.Time       `json:"created_at"`
}

// BirthDateString formats the birth date as YYYY-MM-DD, or nil when unset.
func (u *User) BirthDateString() *string {
	if u.BirthDate == nil {
		return nil
	}
	s := time.Time(*u.BirthDate).Format(time.DateOnly)
	return &s
}
