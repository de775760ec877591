package routes

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Dababah/fithub-app/handlers"
	"github.com/Dababah/fithub-app/utils"
)

// AuthMiddleware 驗證 JWT token，並提取 member_id 和 role
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "缺少 Authorization 標頭",
				"error":   "Authorization header is required",
				"code":    "ERR_NO_AUTH_HEADER",
			})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "無效的 Authorization 格式",
				"error":   "Authorization header must be in the format 'Bearer <token>'",
				"code":    "ERR_INVALID_AUTH_FORMAT",
			})
			c.Abort()
			return
		}

		// 明確要求檢查 exp 字段
		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return utils.JWTSecret, nil
		}, jwt.WithExpirationRequired())

		if err != nil {
			log.Printf("Token parsing error: %v", err)
			if errors.Is(err, jwt.ErrTokenExpired) {
				c.JSON(http.StatusUnauthorized, gin.H{
					"status":  false,
					"message": "token 已過期",
					"error":   "Token has expired",
					"code":    "ERR_TOKEN_EXPIRED",
				})
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{
					"status":  false,
					"message": "無效的 token",
					"error":   err.Error(),
					"code":    "ERR_INVALID_TOKEN",
				})
			}
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "無效的 token 內容",
				"error":   "Invalid token claims or token is not valid",
				"code":    "ERR_INVALID_CLAIMS",
			})
			c.Abort()
			return
		}

		// 確認 member_id 字段
		memberID, ok := claims["member_id"].(float64)
		if !ok {
			log.Printf("Missing or invalid member_id in token")
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "無效的會員 ID",
				"error":   "Invalid member_id in token",
				"code":    "ERR_INVALID_MEMBER_ID",
			})
			c.Abort()
			return
		}

		// 確認 role 字段
		role, ok := claims["role"].(string)
		if !ok || (role != "member" && role != "admin") {
			log.Printf("Missing or invalid role in token: %v", role)
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "無效的角色",
				"error":   "Invalid role in token",
				"code":    "ERR_INVALID_ROLE",
			})
			c.Abort()
			return
		}

		c.Set("member_id", int(memberID))
		c.Set("role", role) // 將 role 存入上下文
		c.Next()
	}
}

// RoleMiddleware 檢查會員角色是否符合要求
func RoleMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "無法獲取角色資訊",
				"error":   "Role not found in context",
				"code":    "ERR_ROLE_NOT_FOUND",
			})
			c.Abort()
			return
		}

		roleStr, ok := role.(string)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "無效的角色類型",
				"error":   "Invalid role type",
				"code":    "ERR_INVALID_ROLE_TYPE",
			})
			c.Abort()
			return
		}

		// 允許 admin 角色訪問所有端點
		if roleStr == "admin" {
			c.Next()
			return
		}

		for _, allowedRole := range allowedRoles {
			if roleStr == allowedRole {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{
			"status":  false,
			"message": "權限不足",
			"error":   "Insufficient role permissions",
			"code":    "ERR_INSUFFICIENT_PERMISSIONS",
		})
		c.Abort()
	}
}

// MemberOnlyMiddleware 僅允許 member 角色。
// admin token 的 member_id 其實是 AdminID，不能拿來查會員資料表
func MemberOnlyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get("role")
		if roleStr, ok := role.(string); !ok || roleStr != "member" {
			c.JSON(http.StatusForbidden, gin.H{
				"status":  false,
				"message": "權限不足",
				"error":   "this endpoint is for member accounts only",
				"code":    "ERR_MEMBER_ONLY",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// SelfOrAdminMiddleware 檢查是否為管理員或操作自己的資料
func SelfOrAdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		currentMemberID, exists := c.Get("member_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "未授權",
				"error":   "member_id not found in token",
				"code":    "ERR_NO_MEMBER_ID",
			})
			c.Abort()
			return
		}

		currentMemberIDInt, ok := currentMemberID.(int)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "未授權",
				"error":   "invalid member_id type",
				"code":    "ERR_INVALID_MEMBER_ID",
			})
			c.Abort()
			return
		}

		role, _ := c.Get("role")
		roleStr, ok := role.(string)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "未授權",
				"error":   "invalid role type",
				"code":    "ERR_INVALID_ROLE",
			})
			c.Abort()
			return
		}

		requestedMemberID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"status":  false,
				"message": "無效的會員 ID",
				"error":   err.Error(),
				"code":    "ERR_INVALID_ID",
			})
			c.Abort()
			return
		}

		// 權限檢查
		if roleStr != "admin" && currentMemberIDInt != requestedMemberID {
			c.JSON(http.StatusForbidden, gin.H{
				"status":  false,
				"message": "無權限",
				"error":   "you can only access your own member record",
				"code":    "ERR_INSUFFICIENT_PERMISSIONS",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func Path(router *gin.RouterGroup) {
	// 測試路由
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// 認證路由
	auth := router.Group("/auth")
	{
		auth.POST("/login", handlers.Login) // 登入並獲取 token
	}

	// 簽到路由
	attendance := router.Group("/attendance")
	{
		attendance.POST("/check-in", handlers.CheckIn) // QR 掃描簽到
	}

	// 會員路由：全部需要 token 驗證
	members := router.Group("/members")
	members.Use(AuthMiddleware())
	{
		// 管理員專屬路由
		members.GET("/dashboard", RoleMiddleware("admin"), handlers.GetDashboard)      // 儀表板統計
		members.GET("/pdf-report", RoleMiddleware("admin"), handlers.GetMembersReport) // 會員 PDF 報表（必須在 /:id 之前）
		members.GET("", RoleMiddleware("admin"), handlers.GetAllMembers)               // 查詢所有會員
		members.POST("", RoleMiddleware("admin"), handlers.CreateMember)               // 建立會員
		members.DELETE("/:id", RoleMiddleware("admin"), handlers.DeleteMember)         // 刪除會員

		// 個人路由：只有 member 角色能訪問（token 裡的 ID 指向會員資料表）
		members.GET("/profile", MemberOnlyMiddleware(), handlers.GetProfile)                  // 查看個人資料
		members.GET("/attendance", MemberOnlyMiddleware(), handlers.GetAttendanceHistory)     // 查看個人簽到記錄
		members.POST("/profile/picture", MemberOnlyMiddleware(), handlers.UploadProfileImage) // 上傳大頭貼

		// 管理員或本人
		members.GET("/:id", SelfOrAdminMiddleware(), handlers.GetMember)    // 查詢特定會員
		members.PUT("/:id", SelfOrAdminMiddleware(), handlers.UpdateMember) // 更新會員資料
	}
}
