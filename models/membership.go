package models

import "time"

// 會籍狀態（儲存值即為事實，不從日期推導）
const (
	MembershipActive   = "Active"
	MembershipInactive = "Inactive"
)

type Membership struct {
	MembershipID int        `json:"membership_id" gorm:"primaryKey;autoIncrement"`
	MemberID     int        `json:"member_id" gorm:"uniqueIndex;not null"`
	Status       string     `json:"status" gorm:"type:varchar(20);not null;default:'Inactive'"`
	PackageName  *string    `json:"package_name" gorm:"type:varchar(50)"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type MembershipResponse struct {
	Status      string     `json:"status"`
	PackageName *string    `json:"package_name"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
}

func (m *Membership) ToResponse() MembershipResponse {
	return MembershipResponse{
		Status:      m.Status,
		PackageName: m.PackageName,
		StartDate:   m.StartDate,
		EndDate:     m.EndDate,
	}
}

// ValidMembershipStatus 檢查狀態是否為合法列舉值
func ValidMembershipStatus(status string) bool {
	return status == MembershipActive || status == MembershipInactive
}
