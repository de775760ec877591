package models

import "time"

type Member struct {
	MemberID          int          `json:"member_id" gorm:"primaryKey;autoIncrement"`
	FullName          string       `json:"full_name" gorm:"type:varchar(100);not null"`
	Email             string       `json:"email" gorm:"type:varchar(100);uniqueIndex;not null"`
	Phone             string       `json:"phone" gorm:"type:varchar(20)"`
	Password          string       `json:"-" gorm:"type:varchar(100);not null"`
	QRToken           string       `json:"qr_token" gorm:"column:qr_token;type:varchar(64);uniqueIndex;not null"`
	QRPath            string       `json:"qr_path" gorm:"column:qr_path;type:varchar(255)"`
	ProfilePictureURL string       `json:"profile_picture_url" gorm:"column:profile_picture_url;type:varchar(255)"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
	Membership        *Membership  `json:"membership,omitempty" gorm:"foreignKey:MemberID;references:MemberID"`
	Attendances       []Attendance `json:"-" gorm:"foreignKey:MemberID;references:MemberID"`
}

type MemberResponse struct {
	MemberID          int                 `json:"member_id"`
	FullName          string              `json:"full_name"`
	Email             string              `json:"email"`
	Phone             string              `json:"phone"`
	QRToken           string              `json:"qr_token"`
	QRPath            string              `json:"qr_path"`
	ProfilePictureURL string              `json:"profile_picture_url"`
	CreatedAt         time.Time           `json:"created_at"`
	Membership        *MembershipResponse `json:"membership"`
}

// MemberSummaryResponse 會員列表與儀表板用的摘要資料
type MemberSummaryResponse struct {
	MemberID    int     `json:"member_id"`
	FullName    string  `json:"full_name"`
	Email       string  `json:"email"`
	Phone       string  `json:"phone"`
	Status      string  `json:"status"`
	PackageName *string `json:"package_name"`
	QRPath      string  `json:"qr_path"`
}

func (m *Member) ToResponse() MemberResponse {
	var membership *MembershipResponse
	if m.Membership != nil {
		resp := m.Membership.ToResponse()
		membership = &resp
	}

	return MemberResponse{
		MemberID:          m.MemberID,
		FullName:          m.FullName,
		Email:             m.Email,
		Phone:             m.Phone,
		QRToken:           m.QRToken,
		QRPath:            m.QRPath,
		ProfilePictureURL: m.ProfilePictureURL,
		CreatedAt:         m.CreatedAt,
		Membership:        membership,
	}
}

func (m *Member) ToSummaryResponse() MemberSummaryResponse {
	// 沒有會籍記錄的會員視為無方案
	status := MembershipInactive
	var packageName *string
	if m.Membership != nil {
		status = m.Membership.Status
		packageName = m.Membership.PackageName
	}

	return MemberSummaryResponse{
		MemberID:    m.MemberID,
		FullName:    m.FullName,
		Email:       m.Email,
		Phone:       m.Phone,
		Status:      status,
		PackageName: packageName,
		QRPath:      m.QRPath,
	}
}
