package services

import (
	"bytes"
	"fmt"
	"log"

	"github.com/jung-kurt/gofpdf"
)

// BuildMembersReport 產生全部會員的 PDF 報表
func BuildMembersReport() ([]byte, error) {
	members, err := ListMembers()
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 10, "Fithub Members Report")
	pdf.Ln(12)

	headers := []string{"ID", "Full Name", "Email", "Phone", "Status", "Package", "Start Date", "End Date"}
	widths := []float64{12, 50, 60, 32, 24, 32, 28, 28}

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, m := range members {
		summary := m.ToSummaryResponse()
		packageName := "-"
		if summary.PackageName != nil {
			packageName = *summary.PackageName
		}
		startDate, endDate := "-", "-"
		if m.Membership != nil {
			if m.Membership.StartDate != nil {
				startDate = m.Membership.StartDate.Format("2006-01-02")
			}
			if m.Membership.EndDate != nil {
				endDate = m.Membership.EndDate.Format("2006-01-02")
			}
		}

		row := []string{
			fmt.Sprintf("%d", m.MemberID),
			m.FullName,
			m.Email,
			m.Phone,
			summary.Status,
			packageName,
			startDate,
			endDate,
		}
		for i, v := range row {
			pdf.CellFormat(widths[i], 7, v, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		log.Printf("Failed to render members report: %v", err)
		return nil, fmt.Errorf("failed to render members report: %w", err)
	}

	log.Printf("Successfully generated members report with %d members", len(members))
	return buf.Bytes(), nil
}
