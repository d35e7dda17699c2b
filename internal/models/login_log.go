package models

import "time"

// LoginLog is one authenticated session of a back office user
type LoginLog struct {
	ID         int        `json:"id"`
	UserID     int        `json:"user_id"`
	UserNom    string     `json:"user_nom,omitempty"`
	Email      string     `json:"email,omitempty"`
	LoginTime  time.Time  `json:"login_time"`
	LogoutTime *time.Time `json:"logout_time,omitempty"`
	IPAddress  string     `json:"ip_address,omitempty"`
	UserAgent  string     `json:"user_agent,omitempty"`
}

type LoginLogFilter struct {
	UserID *int
	Limit  int
	Offset int
}
