package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Dababah/fithub-app/services"
)

// CheckIn 以 QR token 簽到
func CheckIn(c *gin.Context) {
	var input struct {
		QRToken string `json:"qr_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		log.Printf("Invalid input data: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", err.Error())
		return
	}

	member, record, err := services.CheckInByToken(input.QRToken)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "簽到成功", gin.H{
		"member_id":   member.MemberID,
		"full_name":   member.FullName,
		"check_in_at": record.CheckInAt,
	})
}
