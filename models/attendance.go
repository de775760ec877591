package models

import "time"

// Attendance 簽到記錄，寫入後不再修改
type Attendance struct {
	AttendanceID int       `json:"attendance_id" gorm:"primaryKey;autoIncrement"`
	MemberID     int       `json:"member_id" gorm:"index;not null"`
	CheckInAt    time.Time `json:"check_in_at" gorm:"index;not null"`
}

type AttendanceResponse struct {
	AttendanceID int       `json:"attendance_id"`
	MemberID     int       `json:"member_id"`
	CheckInAt    time.Time `json:"check_in_at"`
}

func (a *Attendance) ToResponse() AttendanceResponse {
	return AttendanceResponse{
		AttendanceID: a.AttendanceID,
		MemberID:     a.MemberID,
		CheckInAt:    a.CheckInAt,
	}
}
