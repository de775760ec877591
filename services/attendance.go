package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/Dababah/fithub-app/database"
	"github.com/Dababah/fithub-app/models"
)

// CheckInByToken 以 QR token 簽到，回傳該會員與新增的記錄
func CheckInByToken(qrToken string) (*models.Member, *models.Attendance, error) {
	if qrToken == "" {
		return nil, nil, fmt.Errorf("%w: qr_token is required", ErrValidation)
	}

	var member models.Member
	if err := database.DB.Where("qr_token = ?", qrToken).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrMemberNotFound
		}
		log.Printf("Failed to look up member by QR token: %v", err)
		return nil, nil, fmt.Errorf("failed to look up member by QR token: %w", err)
	}

	record := models.Attendance{
		MemberID:  member.MemberID,
		CheckInAt: time.Now(),
	}
	if err := database.DB.Create(&record).Error; err != nil {
		log.Printf("Failed to record check-in for member %d: %v", member.MemberID, err)
		return nil, nil, fmt.Errorf("failed to record check-in for member %d: %w", member.MemberID, err)
	}

	log.Printf("Member %d checked in at %s", member.MemberID, record.CheckInAt.Format("15:04:05"))
	return &member, &record, nil
}
