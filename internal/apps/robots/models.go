package robots

import "time"

// Robot is the last known state of a user's device. Robots are never
// removed; delete sets Archived. Archived is NULL on rows that
// predate the column.
type Robot struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	UserID       int64     `gorm:"not null;index" json:"-"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Model        string    `gorm:"size:100;not null" json:"model"`
	HasCleaning  bool      `gorm:"not null" json:"has_cleaning"`
	BatteryLevel int       `gorm:"not null" json:"battery_level"`
	Status       string    `gorm:"size:50;not null" json:"status"`
	CurrentTask  string    `gorm:"size:50;not null" json:"current_task"`
	IsActive     bool      `gorm:"not null" json:"is_active"`
	Archived     *bool     `gorm:"default:false" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// --- DTOs ---

type ConnectRequest struct {
	Name        *string `json:"name"`
	Model       *string `json:"model"`
	HasCleaning *bool   `json:"has_cleaning"`
}

// UpdateRequest carries a partial update. Nil fields (absent or null in the
// body) are left unchanged.
type UpdateRequest struct {
	HasCleaning  *bool   `json:"has_cleaning"`
	BatteryLevel *int    `json:"battery_level"`
	Status       *string `json:"status"`
	CurrentTask  *string `json:"current_task"`
	IsActive     *bool   `json:"is_active"`
}

func (r *UpdateRequest) columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if r.HasCleaning != nil {
		cols["has_cleaning"] = *r.HasCleaning
	}
	if r.BatteryLevel != nil {
		cols["battery_level"] = *r.BatteryLevel
	}
	if r.Status != nil {
		cols["status"] = *r.Status
	}
	if r.CurrentTask != nil {
		cols["current_task"] = *r.CurrentTask
	}
	if r.IsActive != nil {
		cols["is_active"] = *r.IsActive
	}
	return cols
}

type ControlRequest struct {
	Action string `json:"action"`
}

type ListResponse struct {
	Robots []Robot `json:"robots"`
}
