package services

import (
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Dababah/fithub-app/database"
	"github.com/Dababah/fithub-app/models"
)

func TestCreateMemberGeneratesQRAndMembership(t *testing.T) {
	store := setupTestDB(t)

	member := createTestMember(t, "alice@example.com", nil)

	assert.NotEmpty(t, member.QRToken)
	assert.NotEmpty(t, member.QRPath)

	// QR 圖檔必須真的存在
	_, err := os.Stat(store.Path(member.QRPath))
	assert.NoError(t, err, "QR image file should exist")

	// 建立後必須恰好有一筆會籍，預設 Inactive
	var count int64
	require.NoError(t, database.DB.Model(&models.Membership{}).Where("member_id = ?", member.MemberID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	require.NotNil(t, member.Membership)
	assert.Equal(t, models.MembershipInactive, member.Membership.Status)
	assert.Nil(t, member.Membership.PackageName)
}

func TestCreateMemberWithPackage(t *testing.T) {
	setupTestDB(t)

	member := createTestMember(t, "bob@example.com", &MembershipInput{
		Status:      models.MembershipActive,
		PackageName: strPtr("Gold"),
		StartDate:   strPtr("2026-08-01"),
		EndDate:     strPtr("2026-09-01"),
	})

	require.NotNil(t, member.Membership)
	assert.Equal(t, models.MembershipActive, member.Membership.Status)
	require.NotNil(t, member.Membership.PackageName)
	assert.Equal(t, "Gold", *member.Membership.PackageName)
	require.NotNil(t, member.Membership.StartDate)
	assert.Equal(t, "2026-08-01", member.Membership.StartDate.Format("2006-01-02"))
	require.NotNil(t, member.Membership.EndDate)
	assert.Equal(t, "2026-09-01", member.Membership.EndDate.Format("2006-01-02"))
}

func TestCreateMemberDuplicateEmail(t *testing.T) {
	setupTestDB(t)

	createTestMember(t, "carol@example.com", nil)

	_, err := CreateMember(CreateMemberInput{
		FullName: "Another Carol",
		Email:    "carol@example.com",
		Password: "secret123",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)

	// 第二次建立失敗後仍然只有一筆會員
	var count int64
	require.NoError(t, database.DB.Model(&models.Member{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreateMemberValidation(t *testing.T) {
	setupTestDB(t)

	cases := []CreateMemberInput{
		{FullName: "", Email: "x@example.com", Password: "secret123"},
		{FullName: "Name", Email: "", Password: "secret123"},
		{FullName: "Name", Email: "not-an-email", Password: "secret123"},
		{FullName: "Name", Email: "x@example.com", Password: ""},
	}
	for _, input := range cases {
		_, err := CreateMember(input)
		assert.ErrorIs(t, err, ErrValidation)
	}
}

func TestUpdateMemberPartialFields(t *testing.T) {
	setupTestDB(t)

	member := createTestMember(t, "dave@example.com", nil)
	admin := Caller{ID: 1, Role: RoleAdmin}

	updated, err := UpdateMember(member.MemberID, UpdateMemberInput{
		Phone: strPtr("0987654321"),
	}, admin)
	require.NoError(t, err)

	// 只有 phone 改變
	assert.Equal(t, "0987654321", updated.Phone)
	assert.Equal(t, member.FullName, updated.FullName)
	assert.Equal(t, member.Email, updated.Email)
	assert.Equal(t, member.QRToken, updated.QRToken, "qr_token must never change")
}

func TestUpdateMemberRehashesPassword(t *testing.T) {
	setupTestDB(t)

	member := createTestMember(t, "erin@example.com", nil)
	admin := Caller{ID: 1, Role: RoleAdmin}

	_, err := UpdateMember(member.MemberID, UpdateMemberInput{
		Password: strPtr("newsecret456"),
	}, admin)
	require.NoError(t, err)

	var stored models.Member
	require.NoError(t, database.DB.First(&stored, member.MemberID).Error)
	assert.NotEqual(t, "newsecret456", stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("newsecret456")))
}

func TestUpdateMembershipOmittedLeavesRowUntouched(t *testing.T) {
	setupTestDB(t)

	member := createTestMember(t, "frank@example.com", &MembershipInput{
		Status:      models.MembershipActive,
		PackageName: strPtr("Silver"),
	})
	admin := Caller{ID: 1, Role: RoleAdmin}

	// patch 完全不帶 membership key
	updated, err := UpdateMember(member.MemberID, UpdateMemberInput{
		FullName: strPtr("Frank Jr."),
	}, admin)
	require.NoError(t, err)

	require.NotNil(t, updated.Membership)
	assert.Equal(t, models.MembershipActive, updated.Membership.Status)
	require.NotNil(t, updated.Membership.PackageName)
	assert.Equal(t, "Silver", *updated.Membership.PackageName)
}

func TestUpdateMembershipExplicitNullRemovesRow(t *testing.T) {
	setupTestDB(t)

	member := createTestMember(t, "grace@example.com", &MembershipInput{
		Status:      models.MembershipActive,
		PackageName: strPtr("Gold"),
	})
	admin := Caller{ID: 1, Role: RoleAdmin}

	updated, err := UpdateMember(member.MemberID, UpdateMemberInput{
		Membership: json.RawMessage("null"),
	}, admin)
	require.NoError(t, err)
	assert.Nil(t, updated.Membership)

	var count int64
	require.NoError(t, database.DB.Model(&models.Membership{}).Where("member_id = ?", member.MemberID).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestUpdateMembershipReplacesWholesale(t *testing.T) {
	setupTestDB(t)

	member := createTestMember(t, "heidi@example.com", &MembershipInput{
		Status:      models.MembershipActive,
		PackageName: strPtr("Gold"),
		StartDate:   strPtr("2026-08-01"),
		EndDate:     strPtr("2026-09-01"),
	})
	admin := Caller{ID: 1, Role: RoleAdmin}

	// 只帶 status，其他子欄位必須被覆蓋成 null
	updated, err := UpdateMember(member.MemberID, UpdateMemberInput{
		Membership: json.RawMessage(`{"status":"Inactive"}`),
	}, admin)
	require.NoError(t, err)

	require.NotNil(t, updated.Membership)
	assert.Equal(t, models.MembershipInactive, updated.Membership.Status)
	assert.Nil(t, updated.Membership.PackageName)
	assert.Nil(t, updated.Membership.StartDate)
	assert.Nil(t, updated.Membership.EndDate)
}

func TestUpdateMembershipCreatesRowWhenMissing(t *testing.T) {
	setupTestDB(t)

	member := createTestMember(t, "ivan@example.com", nil)
	admin := Caller{ID: 1, Role: RoleAdmin}

	// 先移除會籍，再用物件補回
	_, err := UpdateMember(member.MemberID, UpdateMemberInput{
		Membership: json.RawMessage("null"),
	}, admin)
	require.NoError(t, err)

	updated, err := UpdateMember(member.MemberID, UpdateMemberInput{
		Membership: json.RawMessage(`{"status":"Active","package_name":"Basic"}`),
	}, admin)
	require.NoError(t, err)

	require.NotNil(t, updated.Membership)
	assert.Equal(t, models.MembershipActive, updated.Membership.Status)
	require.NotNil(t, updated.Membership.PackageName)
	assert.Equal(t, "Basic", *updated.Membership.PackageName)
}

func TestUpdateMemberForbiddenForOtherMember(t *testing.T) {
	setupTestDB(t)

	member := createTestMember(t, "judy@example.com", nil)
	other := Caller{ID: member.MemberID + 1, Role: RoleMember}

	_, err := UpdateMember(member.MemberID, UpdateMemberInput{
		Phone: strPtr("0900000000"),
	}, other)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = GetMemberByID(member.MemberID, other)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateMemberNotFound(t *testing.T) {
	setupTestDB(t)

	_, err := UpdateMember(999, UpdateMemberInput{Phone: strPtr("0911111111")}, Caller{ID: 1, Role: RoleAdmin})
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestUpdateMemberDuplicateEmail(t *testing.T) {
	setupTestDB(t)

	createTestMember(t, "kate@example.com", nil)
	member := createTestMember(t, "leo@example.com", nil)

	_, err := UpdateMember(member.MemberID, UpdateMemberInput{
		Email: strPtr("kate@example.com"),
	}, Caller{ID: 1, Role: RoleAdmin})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestDeleteMemberCascades(t *testing.T) {
	store := setupTestDB(t)

	member := createTestMember(t, "mallory@example.com", &MembershipInput{
		Status:      models.MembershipActive,
		PackageName: strPtr("Gold"),
	})

	for i := 0; i < 3; i++ {
		require.NoError(t, database.DB.Create(&models.Attendance{
			MemberID:  member.MemberID,
			CheckInAt: time.Now().AddDate(0, 0, -i),
		}).Error)
	}

	qrFile := store.Path(member.QRPath)
	require.NoError(t, DeleteMember(member.MemberID))

	// 會員、會籍、簽到記錄全部刪除
	_, err := GetMemberByID(member.MemberID, Caller{ID: 1, Role: RoleAdmin})
	assert.ErrorIs(t, err, ErrMemberNotFound)

	var membershipCount, attendanceCount int64
	require.NoError(t, database.DB.Model(&models.Membership{}).Where("member_id = ?", member.MemberID).Count(&membershipCount).Error)
	require.NoError(t, database.DB.Model(&models.Attendance{}).Where("member_id = ?", member.MemberID).Count(&attendanceCount).Error)
	assert.Equal(t, int64(0), membershipCount)
	assert.Equal(t, int64(0), attendanceCount)

	// QR 圖檔一併清掉
	_, err = os.Stat(qrFile)
	assert.True(t, os.IsNotExist(err), "QR image should be removed after delete")
}

func TestDeleteMemberNotFound(t *testing.T) {
	setupTestDB(t)

	assert.ErrorIs(t, DeleteMember(999), ErrMemberNotFound)
}

func TestGetProfileIdempotent(t *testing.T) {
	setupTestDB(t)

	member := createTestMember(t, "nina@example.com", nil)

	first, err := GetProfile(member.MemberID)
	require.NoError(t, err)
	second, err := GetProfile(member.MemberID)
	require.NoError(t, err)

	assert.Equal(t, first.ToResponse(), second.ToResponse())
}

func TestGetAttendanceHistoryLimitAndOrder(t *testing.T) {
	setupTestDB(t)

	member := createTestMember(t, "oscar@example.com", nil)

	base := time.Now().Add(-24 * time.Hour)
	for i := 0; i < 12; i++ {
		require.NoError(t, database.DB.Create(&models.Attendance{
			MemberID:  member.MemberID,
			CheckInAt: base.Add(time.Duration(i) * time.Hour),
		}).Error)
	}

	records, err := GetAttendanceHistory(member.MemberID)
	require.NoError(t, err)
	require.Len(t, records, 10)

	// 新到舊排序
	for i := 1; i < len(records); i++ {
		assert.True(t, !records[i-1].CheckInAt.Before(records[i].CheckInAt))
	}
}

func TestUploadProfileImageReplacesOldFile(t *testing.T) {
	store := setupTestDB(t)

	member := createTestMember(t, "peggy@example.com", nil)

	first, err := UploadProfileImage(member.MemberID, "avatar.png", []byte("first image"))
	require.NoError(t, err)
	firstRef := first.ProfilePictureURL
	require.NotEmpty(t, firstRef)

	second, err := UploadProfileImage(member.MemberID, "avatar.png", []byte("second image"))
	require.NoError(t, err)
	require.NotEmpty(t, second.ProfilePictureURL)
	assert.NotEqual(t, firstRef, second.ProfilePictureURL)

	// 舊檔被清掉，新檔存在
	_, err = os.Stat(store.Path(firstRef))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(store.Path(second.ProfilePictureURL))
	assert.NoError(t, err)
}

func TestUploadProfileImageValidation(t *testing.T) {
	setupTestDB(t)

	member := createTestMember(t, "quinn@example.com", nil)

	_, err := UploadProfileImage(member.MemberID, "avatar.png", nil)
	assert.ErrorIs(t, err, ErrNoFile)

	_, err = UploadProfileImage(999, "avatar.png", []byte("data"))
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

// failingStore 模擬檔案寫入失敗的儲存後端
type failingStore struct{}

func (failingStore) Put(name string, data []byte) (string, error) {
	return "", errors.New("disk full")
}
func (failingStore) Delete(ref string) error { return nil }
func (failingStore) Path(ref string) string  { return "" }

func TestCreateMemberQRFailureRollsBack(t *testing.T) {
	setupTestDB(t)
	Artifacts = failingStore{}

	_, err := CreateMember(CreateMemberInput{
		FullName: "Frank",
		Email:    "frank@example.com",
		Phone:    "0911222333",
		Password: "secret123",
	})
	require.Error(t, err)

	// QR 產生失敗必須整筆回滾，不得留下會員或會籍
	var members, memberships int64
	require.NoError(t, database.DB.Model(&models.Member{}).Count(&members).Error)
	require.NoError(t, database.DB.Model(&models.Membership{}).Count(&memberships).Error)
	assert.Equal(t, int64(0), members)
	assert.Equal(t, int64(0), memberships)
}

func TestCreateMemberDuplicateEmailFromIndex(t *testing.T) {
	setupTestDB(t)

	// 模擬併發：重複檢查通過後、寫入前，另一個請求先插入同一個 email
	const callbackName = "test:inject_rival_member"
	injected := false
	err := database.DB.Callback().Create().Before("gorm:create").Register(callbackName, func(tx *gorm.DB) {
		if injected {
			return
		}
		if _, ok := tx.Statement.Dest.(*models.Member); !ok {
			return
		}
		injected = true
		rival := models.Member{
			FullName: "First Grace",
			Email:    "grace@example.com",
			Password: "hash",
			QRToken:  "rival-token",
		}
		require.NoError(t, database.DB.Session(&gorm.Session{NewDB: true}).Create(&rival).Error)
	})
	require.NoError(t, err)
	defer database.DB.Callback().Create().Remove(callbackName)

	_, err = CreateMember(CreateMemberInput{
		FullName: "Second Grace",
		Email:    "grace@example.com",
		Password: "secret123",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)

	// 搶先寫入的那筆保留，失敗的那筆沒有留下任何東西
	var count int64
	require.NoError(t, database.DB.Model(&models.Member{}).Where("email = ?", "grace@example.com").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
