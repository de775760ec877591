package services

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/Dababah/fithub-app/database"
	"github.com/Dababah/fithub-app/models"
	"github.com/Dababah/fithub-app/utils"
)

// Login 驗證登入憑證：先查管理員帳號，再查會員 email，
// 成功時回傳 {id, role} 供簽發 token
func Login(identifier, password string) (*Caller, error) {
	if identifier == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	var admin models.Admin
	err := database.DB.Where("username = ?", identifier).First(&admin).Error
	if err == nil {
		if !utils.CheckPasswordHash(password, admin.Password) {
			log.Printf("Invalid password for admin %s", identifier)
			return nil, ErrLoginFailed
		}
		log.Printf("Admin %s logged in successfully", identifier)
		return &Caller{ID: admin.AdminID, Role: RoleAdmin}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Failed to look up admin %s: %v", identifier, err)
		return nil, fmt.Errorf("failed to look up admin: %w", err)
	}

	var member models.Member
	if err := database.DB.Where("email = ?", identifier).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("No account found for %s", identifier)
			return nil, ErrLoginFailed
		}
		log.Printf("Failed to look up member %s: %v", identifier, err)
		return nil, fmt.Errorf("failed to look up member: %w", err)
	}
	if !utils.CheckPasswordHash(password, member.Password) {
		log.Printf("Invalid password for member %s", identifier)
		return nil, ErrLoginFailed
	}

	log.Printf("Member with ID %d logged in successfully", member.MemberID)
	return &Caller{ID: member.MemberID, Role: RoleMember}, nil
}
