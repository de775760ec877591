package handlers

import (
	"io"
	"log"
	"net/http"
	"regexp"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Dababah/fithub-app/models"
	"github.com/Dababah/fithub-app/services"
)

// 電子郵件驗證 regex
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// callerFromContext 從 AuthMiddleware 寫入的上下文取出呼叫者身分
func callerFromContext(c *gin.Context) services.Caller {
	id, _ := c.Get("member_id")
	role, _ := c.Get("role")
	caller := services.Caller{}
	if v, ok := id.(int); ok {
		caller.ID = v
	}
	if v, ok := role.(string); ok {
		caller.Role = v
	}
	return caller
}

// CreateMember 建立會員資料檢查（僅管理員）
func CreateMember(c *gin.Context) {
	var input services.CreateMemberInput
	if err := c.ShouldBindJSON(&input); err != nil {
		log.Printf("Invalid input data: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", err.Error())
		return
	}

	// 驗證電子郵件
	if input.Email == "" || !emailRegex.MatchString(input.Email) {
		ErrorResponse(c, http.StatusBadRequest, "請提供有效的電子郵件地址", "a valid email is required")
		return
	}

	// 驗證密碼（最少 6 個字元）
	if len(input.Password) < 6 {
		ErrorResponse(c, http.StatusBadRequest, "密碼必須至少6個字符", "password must be at least 6 characters")
		return
	}

	member, err := services.CreateMember(input)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "會員建立成功", member.ToResponse())
}

// GetAllMembers 查詢所有會員資料檢查（僅管理員）
func GetAllMembers(c *gin.Context) {
	members, err := services.ListMembers()
	if err != nil {
		log.Printf("Failed to get all members: %v", err)
		ErrorResponse(c, http.StatusInternalServerError, "查詢所有會員失敗", err.Error())
		return
	}

	memberResponses := make([]models.MemberSummaryResponse, len(members))
	for i := range members {
		memberResponses[i] = members[i].ToSummaryResponse()
	}

	SuccessResponse(c, http.StatusOK, "查詢成功", memberResponses)
}

// GetMember 根據ID查詢會員資料檢查（管理員或本人）
func GetMember(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		log.Printf("Invalid member ID: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的會員ID", err.Error())
		return
	}

	member, err := services.GetMemberByID(id, callerFromContext(c))
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "查詢成功", member.ToResponse())
}

// UpdateMember 根據ID更新會員資料檢查（管理員或本人）
func UpdateMember(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		log.Printf("Invalid member ID: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的會員ID", err.Error())
		return
	}

	var input services.UpdateMemberInput
	if err := c.ShouldBindJSON(&input); err != nil {
		log.Printf("Invalid input data: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", err.Error())
		return
	}

	// 驗證電子郵件（如有提供）
	if input.Email != nil && !emailRegex.MatchString(*input.Email) {
		ErrorResponse(c, http.StatusBadRequest, "請提供有效的電子郵件地址", "a valid email is required")
		return
	}

	member, err := services.UpdateMember(id, input, callerFromContext(c))
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "更新成功", member.ToResponse())
}

// DeleteMember 刪除會員資料檢查（僅管理員）
func DeleteMember(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		log.Printf("Invalid member ID: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的會員ID", err.Error())
		return
	}

	if err := services.DeleteMember(id); err != nil {
		ServiceErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "刪除成功", nil)
}

// GetProfile 查詢個人資料
func GetProfile(c *gin.Context) {
	caller := callerFromContext(c)
	member, err := services.GetProfile(caller.ID)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "查詢成功", member.ToResponse())
}

// GetAttendanceHistory 查詢個人簽到記錄
func GetAttendanceHistory(c *gin.Context) {
	caller := callerFromContext(c)
	records, err := services.GetAttendanceHistory(caller.ID)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}

	responses := make([]models.AttendanceResponse, len(records))
	for i := range records {
		responses[i] = records[i].ToResponse()
	}

	SuccessResponse(c, http.StatusOK, "查詢成功", responses)
}

// UploadProfileImage 上傳個人大頭貼（multipart 欄位 profileImage）
func UploadProfileImage(c *gin.Context) {
	caller := callerFromContext(c)

	fileHeader, err := c.FormFile("profileImage")
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "未上傳任何檔案", err.Error())
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Printf("Failed to open uploaded file: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無法讀取上傳檔案", err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		log.Printf("Failed to read uploaded file: %v", err)
		ErrorResponse(c, http.StatusInternalServerError, "無法讀取上傳檔案", err.Error())
		return
	}

	member, err := services.UploadProfileImage(caller.ID, fileHeader.Filename, data)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "大頭貼上傳成功", gin.H{
		"profile_picture_url": member.ProfilePictureURL,
	})
}
