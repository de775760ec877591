package services

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/Dababah/fithub-app/database"
	"github.com/Dababah/fithub-app/models"
)

// AttendanceBucket 單日簽到次數
type AttendanceBucket struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// DashboardData 管理員儀表板的彙總結果
type DashboardData struct {
	TotalMembers     int64                          `json:"total_members"`
	ActiveMembers    int64                          `json:"active_members"`
	InactiveMembers  int64                          `json:"inactive_members"`
	WeeklyAttendance []AttendanceBucket             `json:"weekly_attendance"`
	LatestMembers    []models.MemberSummaryResponse `json:"latest_members"`
}

// GetDashboard 計算儀表板統計：會員總數、會籍狀態分佈、
// 最近 7 天每日簽到數與最新加入的 5 位會員
func GetDashboard() (*DashboardData, error) {
	data := &DashboardData{}

	if err := database.DB.Model(&models.Member{}).Count(&data.TotalMembers).Error; err != nil {
		log.Printf("Failed to count members: %v", err)
		return nil, fmt.Errorf("failed to count members: %w", err)
	}

	// 依儲存的狀態分組計數；沒有會籍記錄的會員兩邊都不計
	if err := database.DB.Model(&models.Membership{}).
		Where("status = ?", models.MembershipActive).
		Count(&data.ActiveMembers).Error; err != nil {
		log.Printf("Failed to count active memberships: %v", err)
		return nil, fmt.Errorf("failed to count active memberships: %w", err)
	}
	if err := database.DB.Model(&models.Membership{}).
		Where("status = ?", models.MembershipInactive).
		Count(&data.InactiveMembers).Error; err != nil {
		log.Printf("Failed to count inactive memberships: %v", err)
		return nil, fmt.Errorf("failed to count inactive memberships: %w", err)
	}

	buckets, err := weeklyAttendance(time.Now())
	if err != nil {
		return nil, err
	}
	data.WeeklyAttendance = buckets

	var latest []models.Member
	if err := database.DB.
		Preload("Membership").
		Order("created_at DESC").
		Limit(5).
		Find(&latest).Error; err != nil {
		log.Printf("Failed to query latest members: %v", err)
		return nil, fmt.Errorf("failed to query latest members: %w", err)
	}
	data.LatestMembers = make([]models.MemberSummaryResponse, len(latest))
	for i := range latest {
		data.LatestMembers[i] = latest[i].ToSummaryResponse()
	}

	return data, nil
}

// weeklyAttendance 取出最近 7 天的簽到記錄並在記憶體中按日期分組，
// 沒有簽到的日期不會出現在結果裡，由前端自行補零
func weeklyAttendance(now time.Time) ([]AttendanceBucket, error) {
	oneWeekAgo := now.AddDate(0, 0, -7)

	var records []models.Attendance
	if err := database.DB.
		Where("check_in_at >= ?", oneWeekAgo).
		Find(&records).Error; err != nil {
		log.Printf("Failed to query weekly attendance: %v", err)
		return nil, fmt.Errorf("failed to query weekly attendance: %w", err)
	}

	counts := make(map[string]int)
	for _, r := range records {
		counts[r.CheckInAt.Format("2006-01-02")]++
	}

	buckets := make([]AttendanceBucket, 0, len(counts))
	for date, count := range counts {
		buckets = append(buckets, AttendanceBucket{Date: date, Count: count})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Date < buckets[j].Date })

	return buckets, nil
}

// ReportExpiringMemberships 列出 7 天內到期的會籍（排程用，只記錄不改狀態）
func ReportExpiringMemberships() error {
	now := time.Now()
	cutoff := now.AddDate(0, 0, 7)

	var expiring []models.Membership
	if err := database.DB.
		Where("status = ? AND end_date IS NOT NULL AND end_date BETWEEN ? AND ?", models.MembershipActive, now, cutoff).
		Find(&expiring).Error; err != nil {
		log.Printf("Failed to query expiring memberships: %v", err)
		return fmt.Errorf("failed to query expiring memberships: %w", err)
	}

	for _, m := range expiring {
		log.Printf("Membership of member %d expires on %s", m.MemberID, m.EndDate.Format("2006-01-02"))
	}
	log.Printf("Expiring membership check completed: %d expiring within 7 days", len(expiring))
	return nil
}
