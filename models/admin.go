package models

import "time"

type Admin struct {
	AdminID   int       `json:"admin_id" gorm:"primaryKey;autoIncrement"`
	Username  string    `json:"username" gorm:"type:varchar(50);uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"type:varchar(100);not null"`
	CreatedAt time.Time `json:"created_at"`
}
