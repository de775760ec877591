package services

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Dababah/fithub-app/database"
	"github.com/Dababah/fithub-app/models"
	"github.com/Dababah/fithub-app/storage"
)

// setupTestDB 建立測試用 SQLite 資料庫與暫存檔案儲存
func setupTestDB(t *testing.T) *storage.LocalStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "fithub_test.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err, "failed to open sqlite test database")

	err = db.AutoMigrate(
		&models.Admin{},
		&models.Member{},
		&models.Membership{},
		&models.Attendance{},
	)
	require.NoError(t, err, "failed to migrate test database")

	database.DB = db

	store, err := storage.NewLocalStore(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err, "failed to create test artifact store")
	Artifacts = store
	BaseURL = "http://localhost:8080"

	return store
}

func strPtr(s string) *string { return &s }

// createTestMember 建立一個測試會員，membership 為 nil 時使用預設會籍
func createTestMember(t *testing.T, email string, membership *MembershipInput) *models.Member {
	t.Helper()

	member, err := CreateMember(CreateMemberInput{
		FullName:   "Test Member",
		Email:      email,
		Phone:      "0912345678",
		Password:   "secret123",
		Membership: membership,
	})
	require.NoError(t, err)
	return member
}
