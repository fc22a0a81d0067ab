package identity

import "gorm.io/gorm"

// OwnedBy returns a GORM scope that filters rows by user_id.
func OwnedBy(userID int64) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userID)
	}
}

// NotArchived hides soft-deleted rows. Rows written before the archived
// column existed carry NULL, so both NULL and false count as live.
func NotArchived(db *gorm.DB) *gorm.DB {
	return db.Where("(archived IS NULL OR archived = false)")
}
