package models

import (
	"time"

	"timegrid/grid"
)

// User mirrors one row of the admin-supplied user list. AllowedHours caps
// how many slots the user may hold at once.
type User struct {
	UserID       string    `json:"userid" bson:"userid"`
	Username     string    `json:"username" bson:"username"`
	Password     string    `json:"password,omitempty" bson:"password"` // bcrypt hash
	AllowedHours int       `json:"allowed_hours" bson:"allowed_hours"`
	Role         string    `json:"role" bson:"role"` // "user" or "admin"
	RefreshToken string    `json:"-" bson:"refresh_token,omitempty"`
	RefreshExp   time.Time `json:"-" bson:"refresh_expiry,omitempty"`
	LastLogin    time.Time `json:"-" bson:"last_login,omitempty"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

// Reservation is one reserved slot, as stored and as pushed in snapshots.
type Reservation struct {
	Day       grid.Weekday `json:"day" bson:"reservation_day"`
	TimeIndex int          `json:"time_index" bson:"time_index"`
	Username  string       `json:"username" bson:"username"`
	CreatedAt time.Time    `json:"-" bson:"createdAt,omitempty"`
}

// ReservationIntent is the submission payload from clients.
type ReservationIntent struct {
	Reservations []grid.SlotRef `json:"reservations"`
}

// AdminReservationRequest forces a slot onto a named user.
type AdminReservationRequest struct {
	Day       grid.Weekday `json:"day"`
	TimeIndex int          `json:"time_index"`
	Username  string       `json:"username"`
}

// SlotRequest identifies one slot in admin delete calls.
type SlotRequest struct {
	Day       grid.Weekday `json:"day"`
	TimeIndex int          `json:"time_index"`
}

// ScheduleRequest sets the next reservation open time.
type ScheduleRequest struct {
	OpenDatetime string `json:"open_datetime"` // RFC 3339
}

// Setting is one key/value of system configuration.
type Setting struct {
	Key   string `json:"key" bson:"key"`
	Value string `json:"value" bson:"value"`
}

const (
	SettingReservationEnabled = "reservation_enabled"
	SettingReservationOpensAt = "reservation_opens_at"
)
