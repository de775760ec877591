package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/Dababah/fithub-app/database"
	"github.com/Dababah/fithub-app/models"
	"github.com/Dababah/fithub-app/routes"
	"github.com/Dababah/fithub-app/services"
	"github.com/Dababah/fithub-app/storage"
	"github.com/Dababah/fithub-app/utils"
)

func main() {
	// 載入 .env 檔案
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using default environment variables: %v", err)
	}

	// 初始化 JWTSecret
	utils.InitJWTSecret()

	// 初始化資料庫
	database.InitDB()

	// 執行資料庫遷移
	database.DB.AutoMigrate(
		&models.Admin{},
		&models.Member{},
		&models.Membership{},
		&models.Attendance{},
	)
	log.Println("Database migration completed")

	// 確保預設管理員存在
	ensureAdminExists()

	// 初始化檔案儲存（QR 碼與大頭貼）
	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "uploads"
	}
	store, err := storage.NewLocalStore(uploadDir)
	if err != nil {
		log.Fatalf("Failed to initialize artifact store: %v", err)
	}
	services.Artifacts = store

	services.BaseURL = os.Getenv("BASE_URL")
	if services.BaseURL == "" {
		services.BaseURL = "http://localhost:8080"
	}

	// 設置 Gin 模式
	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "" {
		ginMode = gin.ReleaseMode
	}
	gin.SetMode(ginMode)
	log.Printf("Gin mode set to %s", ginMode)

	// 初始化 Gin 路由器
	r := gin.Default()

	// QR 碼與大頭貼靜態檔案
	r.Static("/api/uploads", uploadDir)

	// 創建一個 API 路由組
	api := r.Group("/api")
	{
		routes.Path(api)
	}

	// 啟動定時任務
	c := cron.New()

	// 每天 08:00 檢查 7 天內到期的會籍
	_, err = c.AddFunc("0 8 * * *", func() {
		log.Println("Checking for expiring memberships...")
		if err := services.ReportExpiringMemberships(); err != nil {
			log.Printf("Failed to check expiring memberships: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule expiring membership check cron job: %v", err)
	}

	c.Start()
	log.Println("Cron jobs started")

	// 啟動伺服器
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Starting server on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// ensureAdminExists 檢查並創建預設管理員
func ensureAdminExists() {
	var admin models.Admin
	if err := database.DB.First(&admin).Error; err == nil {
		log.Printf("Admin already exists: username=%s", admin.Username)
		return
	}

	username := os.Getenv("ADMIN_USERNAME")
	if username == "" {
		username = "admin"
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin1234"
	}

	// 哈希密碼
	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		log.Fatalf("Failed to hash admin password: %v", err)
	}

	admin = models.Admin{Username: username, Password: hashedPassword}
	if err := database.DB.Create(&admin).Error; err != nil {
		log.Fatalf("Failed to create default admin: %v", err)
	}

	log.Printf("Default admin created: username=%s", username)
}
