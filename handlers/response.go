package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Dababah/fithub-app/services"
)

// APIResponse 定義統一的 API 回應結構
type APIResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"` // omitempty 表示如果為空則不顯示
	Error   string      `json:"error,omitempty"`
}

// SuccessResponse 返回成功的回應
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, APIResponse{
		Status:  true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 返回失敗的回應
func ErrorResponse(c *gin.Context, statusCode int, message string, err string) {
	c.JSON(statusCode, APIResponse{
		Status:  false,
		Message: message,
		Error:   err,
	})
}

// ServiceErrorResponse 依服務層錯誤分類回應對應的狀態碼
func ServiceErrorResponse(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", err.Error())
	case errors.Is(err, services.ErrEmailTaken):
		ErrorResponse(c, http.StatusBadRequest, "該電子郵件已被註冊", err.Error())
	case errors.Is(err, services.ErrNoFile):
		ErrorResponse(c, http.StatusBadRequest, "未上傳任何檔案", err.Error())
	case errors.Is(err, services.ErrMemberNotFound):
		ErrorResponse(c, http.StatusNotFound, "會員不存在", err.Error())
	case errors.Is(err, services.ErrForbidden):
		ErrorResponse(c, http.StatusForbidden, "權限不足", err.Error())
	case errors.Is(err, services.ErrLoginFailed):
		ErrorResponse(c, http.StatusUnauthorized, "登入失敗，檢查電子郵件或密碼", err.Error())
	default:
		ErrorResponse(c, http.StatusInternalServerError, "伺服器錯誤", err.Error())
	}
}
