package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Dababah/fithub-app/database"
	"github.com/Dababah/fithub-app/models"
	"github.com/Dababah/fithub-app/storage"
	"github.com/Dababah/fithub-app/utils"
)

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Caller 已驗證的呼叫者身分（由 JWT middleware 提供）
type Caller struct {
	ID   int
	Role string
}

// Artifacts 與 BaseURL 由 main 在啟動時注入
var (
	Artifacts storage.ArtifactStore
	BaseURL   string
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// MembershipInput 會籍欄位，日期格式 YYYY-MM-DD
type MembershipInput struct {
	Status      string  `json:"status"`
	PackageName *string `json:"package_name"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
}

type CreateMemberInput struct {
	FullName   string           `json:"full_name"`
	Email      string           `json:"email"`
	Phone      string           `json:"phone"`
	Password   string           `json:"password"`
	Membership *MembershipInput `json:"membership"`
}

// UpdateMemberInput 部分更新：nil 代表該欄位不變。
// Membership 用 json.RawMessage 區分三種情況：
// 省略 key（不動會籍）、明確的 null（移除會籍）、物件（整筆覆蓋）
type UpdateMemberInput struct {
	FullName   *string         `json:"full_name"`
	Email      *string         `json:"email"`
	Phone      *string         `json:"phone"`
	Password   *string         `json:"password"`
	Membership json.RawMessage `json:"membership"`
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", ErrValidation, s)
		}
	}
	return &t, nil
}

// membershipFields 將輸入轉成可直接寫入的欄位值，缺少的子欄位一律視為 null
func membershipFields(in *MembershipInput) (map[string]interface{}, error) {
	status := in.Status
	if status == "" {
		status = models.MembershipInactive
	}
	if !models.ValidMembershipStatus(status) {
		return nil, fmt.Errorf("%w: status must be %q or %q", ErrValidation, models.MembershipActive, models.MembershipInactive)
	}

	fields := map[string]interface{}{
		"status":       status,
		"package_name": nil,
		"start_date":   nil,
		"end_date":     nil,
	}
	if in.PackageName != nil && *in.PackageName != "" {
		fields["package_name"] = *in.PackageName
	}
	if in.StartDate != nil {
		t, err := parseDate(*in.StartDate)
		if err != nil {
			return nil, err
		}
		if t != nil {
			fields["start_date"] = *t
		}
	}
	if in.EndDate != nil {
		t, err := parseDate(*in.EndDate)
		if err != nil {
			return nil, err
		}
		if t != nil {
			fields["end_date"] = *t
		}
	}
	return fields, nil
}

// CreateMember 建立會員：檢查重複 email、哈希密碼、產生 qr_token，
// 並在同一筆事務內寫入會員、QR 圖檔路徑與會籍記錄
func CreateMember(input CreateMemberInput) (*models.Member, error) {
	if strings.TrimSpace(input.FullName) == "" {
		return nil, fmt.Errorf("%w: full_name is required", ErrValidation)
	}
	if input.Email == "" || !emailRegex.MatchString(input.Email) {
		return nil, fmt.Errorf("%w: a valid email is required", ErrValidation)
	}
	if input.Password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrValidation)
	}

	// 檢查是否有重複的 email
	var existing models.Member
	if err := database.DB.Where("email = ?", input.Email).First(&existing).Error; err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Failed to check for duplicate email: %v", err)
		return nil, fmt.Errorf("failed to check for duplicate email: %w", err)
	}

	hashedPassword, err := hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	// qr_token 只在建立時產生一次，之後不再更換
	qrToken := uuid.NewString()

	tx := database.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			log.Printf("Panic occurred during member creation: %v", r)
		}
	}()

	member := &models.Member{
		FullName: input.FullName,
		Email:    input.Email,
		Phone:    input.Phone,
		Password: hashedPassword,
		QRToken:  qrToken,
	}
	if err := tx.Create(member).Error; err != nil {
		tx.Rollback()
		// 預先檢查後仍可能被併發寫入搶先，唯一索引衝突一樣回報重複 email
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		log.Printf("Failed to create member: %v", err)
		return nil, fmt.Errorf("failed to create member: %w", err)
	}

	// QR 產生失敗整筆回滾，不允許留下沒有 QR 的會員
	qrPath, err := storage.GenerateMemberQR(Artifacts, qrToken, member.MemberID, BaseURL)
	if err != nil {
		tx.Rollback()
		log.Printf("Failed to generate QR for member %d: %v", member.MemberID, err)
		return nil, fmt.Errorf("failed to generate QR for member %d: %w", member.MemberID, err)
	}
	member.QRPath = qrPath
	if err := tx.Model(member).Update("qr_path", qrPath).Error; err != nil {
		tx.Rollback()
		cleanupArtifact(qrPath)
		log.Printf("Failed to save QR path for member %d: %v", member.MemberID, err)
		return nil, fmt.Errorf("failed to save QR path for member %d: %w", member.MemberID, err)
	}

	// 沒有提供方案時預設為 Inactive 會籍
	membership := models.Membership{MemberID: member.MemberID, Status: models.MembershipInactive}
	if input.Membership != nil && input.Membership.PackageName != nil && *input.Membership.PackageName != "" {
		fields, err := membershipFields(input.Membership)
		if err != nil {
			tx.Rollback()
			cleanupArtifact(qrPath)
			return nil, err
		}
		membership.Status = fields["status"].(string)
		membership.PackageName = input.Membership.PackageName
		if t, ok := fields["start_date"].(time.Time); ok {
			membership.StartDate = &t
		}
		if t, ok := fields["end_date"].(time.Time); ok {
			membership.EndDate = &t
		}
	}
	if err := tx.Create(&membership).Error; err != nil {
		tx.Rollback()
		cleanupArtifact(qrPath)
		log.Printf("Failed to create membership for member %d: %v", member.MemberID, err)
		return nil, fmt.Errorf("failed to create membership for member %d: %w", member.MemberID, err)
	}

	if err := tx.Commit().Error; err != nil {
		cleanupArtifact(qrPath)
		log.Printf("Failed to commit member creation: %v", err)
		return nil, fmt.Errorf("failed to commit member creation: %w", err)
	}

	member.Membership = &membership
	log.Printf("Successfully created member with ID %d", member.MemberID)
	return member, nil
}

// GetMemberByID 查詢單一會員，member 角色只能查自己
func GetMemberByID(id int, caller Caller) (*models.Member, error) {
	if caller.Role == RoleMember && caller.ID != id {
		return nil, ErrForbidden
	}

	var member models.Member
	if err := database.DB.Preload("Membership").First(&member, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		log.Printf("Failed to get member by ID %d: %v", id, err)
		return nil, fmt.Errorf("failed to get member by ID %d: %w", id, err)
	}
	return &member, nil
}

// ListMembers 查詢所有會員與其會籍
func ListMembers() ([]models.Member, error) {
	var members []models.Member
	if err := database.DB.
		Preload("Membership").
		Order("member_id DESC").
		Find(&members).Error; err != nil {
		log.Printf("Failed to query all members: %v", err)
		return nil, fmt.Errorf("failed to query all members: %w", err)
	}

	log.Printf("Successfully retrieved %d members", len(members))
	return members, nil
}

// UpdateMember 部分更新會員資料並調整會籍（同一筆事務）
func UpdateMember(id int, input UpdateMemberInput, caller Caller) (*models.Member, error) {
	if caller.Role == RoleMember && caller.ID != id {
		return nil, ErrForbidden
	}

	tx := database.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			log.Printf("Panic occurred during member update: %v", r)
		}
	}()

	var member models.Member
	if err := tx.Preload("Membership").First(&member, id).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		log.Printf("Failed to find member %d: %v", id, err)
		return nil, fmt.Errorf("failed to find member %d: %w", id, err)
	}

	// 只更新 patch 裡有出現的欄位
	updates := make(map[string]interface{})
	if input.FullName != nil {
		if strings.TrimSpace(*input.FullName) == "" {
			tx.Rollback()
			return nil, fmt.Errorf("%w: full_name cannot be empty", ErrValidation)
		}
		updates["full_name"] = *input.FullName
	}
	if input.Email != nil {
		if !emailRegex.MatchString(*input.Email) {
			tx.Rollback()
			return nil, fmt.Errorf("%w: a valid email is required", ErrValidation)
		}
		var existing models.Member
		if err := tx.Where("email = ? AND member_id != ?", *input.Email, id).First(&existing).Error; err == nil {
			tx.Rollback()
			return nil, ErrEmailTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			tx.Rollback()
			log.Printf("Failed to check for duplicate email: %v", err)
			return nil, fmt.Errorf("failed to check for duplicate email: %w", err)
		}
		updates["email"] = *input.Email
	}
	if input.Phone != nil {
		updates["phone"] = *input.Phone
	}
	if input.Password != nil {
		if *input.Password == "" {
			tx.Rollback()
			return nil, fmt.Errorf("%w: password cannot be empty", ErrValidation)
		}
		hashed, err := hashPassword(*input.Password)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		updates["password"] = hashed
	}
	if len(updates) > 0 {
		if err := tx.Model(&member).Updates(updates).Error; err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, ErrEmailTaken
			}
			log.Printf("Failed to update member %d: %v", id, err)
			return nil, fmt.Errorf("failed to update member %d: %w", id, err)
		}
	}

	// 會籍調整：省略 key 不動、明確 null 移除、物件整筆覆蓋
	switch {
	case input.Membership == nil:
		// 不動會籍
	case isJSONNull(input.Membership):
		if err := tx.Where("member_id = ?", id).Delete(&models.Membership{}).Error; err != nil {
			tx.Rollback()
			log.Printf("Failed to remove membership of member %d: %v", id, err)
			return nil, fmt.Errorf("failed to remove membership of member %d: %w", id, err)
		}
	default:
		var in MembershipInput
		if err := json.Unmarshal(input.Membership, &in); err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("%w: invalid membership payload", ErrValidation)
		}
		fields, err := membershipFields(&in)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		if member.Membership != nil {
			// 既有會籍整筆覆蓋，缺少的子欄位寫成 null
			if err := tx.Model(&models.Membership{}).Where("member_id = ?", id).Updates(fields).Error; err != nil {
				tx.Rollback()
				log.Printf("Failed to update membership of member %d: %v", id, err)
				return nil, fmt.Errorf("failed to update membership of member %d: %w", id, err)
			}
		} else {
			membership := models.Membership{MemberID: id, Status: fields["status"].(string)}
			if pkg, ok := fields["package_name"].(string); ok {
				membership.PackageName = &pkg
			}
			if t, ok := fields["start_date"].(time.Time); ok {
				membership.StartDate = &t
			}
			if t, ok := fields["end_date"].(time.Time); ok {
				membership.EndDate = &t
			}
			if err := tx.Create(&membership).Error; err != nil {
				tx.Rollback()
				log.Printf("Failed to create membership for member %d: %v", id, err)
				return nil, fmt.Errorf("failed to create membership for member %d: %w", id, err)
			}
		}
	}

	if err := tx.Commit().Error; err != nil {
		log.Printf("Failed to commit member update: %v", err)
		return nil, fmt.Errorf("failed to commit member update: %w", err)
	}

	// 重新讀取合併後的結果
	var updated models.Member
	if err := database.DB.Preload("Membership").First(&updated, id).Error; err != nil {
		log.Printf("Failed to reload member %d: %v", id, err)
		return nil, fmt.Errorf("failed to reload member %d: %w", id, err)
	}

	log.Printf("Successfully updated member with ID %d", id)
	return &updated, nil
}

// DeleteMember 刪除會員並連帶刪除會籍與簽到記錄，
// 檔案清理放在事務提交之後，失敗僅記錄不影響結果
func DeleteMember(id int) error {
	tx := database.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			log.Printf("Panic occurred during member deletion: %v", r)
		}
	}()

	var member models.Member
	if err := tx.First(&member, id).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMemberNotFound
		}
		log.Printf("Failed to find member %d: %v", id, err)
		return fmt.Errorf("failed to find member %d: %w", id, err)
	}

	// 刪除相關的簽到記錄
	if err := tx.Where("member_id = ?", id).Delete(&models.Attendance{}).Error; err != nil {
		tx.Rollback()
		log.Printf("Failed to delete attendance records for member %d: %v", id, err)
		return fmt.Errorf("failed to delete attendance records for member %d: %w", id, err)
	}

	// 刪除相關的會籍
	if err := tx.Where("member_id = ?", id).Delete(&models.Membership{}).Error; err != nil {
		tx.Rollback()
		log.Printf("Failed to delete membership for member %d: %v", id, err)
		return fmt.Errorf("failed to delete membership for member %d: %w", id, err)
	}

	if err := tx.Delete(&member).Error; err != nil {
		tx.Rollback()
		log.Printf("Failed to delete member %d: %v", id, err)
		return fmt.Errorf("failed to delete member %d: %w", id, err)
	}

	if err := tx.Commit().Error; err != nil {
		log.Printf("Failed to commit member deletion: %v", err)
		return fmt.Errorf("failed to commit member deletion: %w", err)
	}

	cleanupArtifact(member.QRPath)
	cleanupArtifact(member.ProfilePictureURL)

	log.Printf("Successfully deleted member with ID %d", id)
	return nil
}

// GetProfile 查詢自己的會員資料
func GetProfile(memberID int) (*models.Member, error) {
	var member models.Member
	if err := database.DB.Preload("Membership").First(&member, memberID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		log.Printf("Failed to get profile for member %d: %v", memberID, err)
		return nil, fmt.Errorf("failed to get profile for member %d: %w", memberID, err)
	}
	return &member, nil
}

// GetAttendanceHistory 查詢自己最近 10 筆簽到記錄（新到舊）
func GetAttendanceHistory(memberID int) ([]models.Attendance, error) {
	var records []models.Attendance
	if err := database.DB.
		Where("member_id = ?", memberID).
		Order("check_in_at DESC").
		Limit(10).
		Find(&records).Error; err != nil {
		log.Printf("Failed to get attendance history for member %d: %v", memberID, err)
		return nil, fmt.Errorf("failed to get attendance history for member %d: %w", memberID, err)
	}
	return records, nil
}

// UploadProfileImage 儲存新大頭貼、best-effort 刪除舊檔，再更新資料庫
func UploadProfileImage(memberID int, filename string, data []byte) (*models.Member, error) {
	if len(data) == 0 {
		return nil, ErrNoFile
	}

	var member models.Member
	if err := database.DB.First(&member, memberID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		log.Printf("Failed to find member %d: %v", memberID, err)
		return nil, fmt.Errorf("failed to find member %d: %w", memberID, err)
	}

	// 檔名：會員ID-時間戳，和 QR 圖檔一樣可以直接由路徑取回
	name := fmt.Sprintf("profiles/%d-%d%s", memberID, time.Now().UnixNano(), filepath.Ext(filename))
	ref, err := Artifacts.Put(name, data)
	if err != nil {
		log.Printf("Failed to store profile image for member %d: %v", memberID, err)
		return nil, fmt.Errorf("failed to store profile image for member %d: %w", memberID, err)
	}

	// 刪除舊照片，失敗不影響上傳
	cleanupArtifact(member.ProfilePictureURL)

	member.ProfilePictureURL = ref
	if err := database.DB.Model(&member).Update("profile_picture_url", ref).Error; err != nil {
		log.Printf("Failed to save profile picture for member %d: %v", memberID, err)
		return nil, fmt.Errorf("failed to save profile picture for member %d: %w", memberID, err)
	}

	log.Printf("Successfully uploaded profile image for member %d", memberID)
	return &member, nil
}

func hashPassword(password string) (string, error) {
	hashed, err := utils.HashPassword(password)
	if err != nil {
		log.Printf("Failed to hash password: %v", err)
		return "", err
	}
	return hashed, nil
}

// cleanupArtifact best-effort 刪除檔案，只記錄錯誤
func cleanupArtifact(ref string) {
	if ref == "" || Artifacts == nil {
		return
	}
	if err := Artifacts.Delete(ref); err != nil {
		log.Printf("Failed to delete artifact %s: %v", ref, err)
	}
}

func isJSONNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
