package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Dababah/fithub-app/services"
)

// GetDashboard 查詢儀表板統計資料（僅管理員）
func GetDashboard(c *gin.Context) {
	data, err := services.GetDashboard()
	if err != nil {
		log.Printf("Failed to get dashboard data: %v", err)
		ErrorResponse(c, http.StatusInternalServerError, "查詢儀表板失敗", err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "查詢成功", data)
}

// GetMembersReport 下載會員 PDF 報表（僅管理員）
func GetMembersReport(c *gin.Context) {
	report, err := services.BuildMembersReport()
	if err != nil {
		log.Printf("Failed to generate members report: %v", err)
		ErrorResponse(c, http.StatusInternalServerError, "產生報表失敗", err.Error())
		return
	}

	c.Header("Content-Disposition", `attachment; filename="members-report.pdf"`)
	c.Data(http.StatusOK, "application/pdf", report)
}
