package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Dababah/fithub-app/services"
	"github.com/Dababah/fithub-app/utils"
)

// Login 登入並簽發 token（管理員或會員）
func Login(c *gin.Context) {
	var loginData struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&loginData); err != nil {
		log.Printf("Invalid input data: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", err.Error())
		return
	}

	caller, err := services.Login(loginData.Email, loginData.Password)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}

	token, err := utils.GenerateToken(caller.ID, caller.Role)
	if err != nil {
		log.Printf("Failed to generate token for %s %d: %v", caller.Role, caller.ID, err)
		ErrorResponse(c, http.StatusInternalServerError, "伺服器錯誤", err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "登入成功", gin.H{
		"token": token,
		"id":    caller.ID,
		"role":  caller.Role,
	})
}
