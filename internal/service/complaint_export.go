package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/campus-complaints-api/internal/models"
)

const exportDateLayout = "2006-01-02"

// ExportColumns is the fixed column order of the CSV export.
var ExportColumns = []string{
	"ID",
	"Title",
	"Category",
	"Status",
	"Student Name",
	"Student ID",
	"Student Email",
	"Description",
	"Admin Remarks",
	"Created Date",
	"Updated Date",
}

// ExportFileName returns the download name for an export generated at now.
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("complaints_export_%s.csv", now.UTC().Format(exportDateLayout))
}

// ExportComplaintsCSV renders complaints as UTF-8 CSV: a header row, then one row per
// complaint with every value quoted. Commas in descriptions become semicolons.
func ExportComplaintsCSV(items []models.Complaint) []byte {
	var b strings.Builder
	b.WriteString(strings.Join(ExportColumns, ","))
	b.WriteString("\n")

	for _, item := range items {
		remarks := ""
		if item.AdminRemarks != nil {
			remarks = *item.AdminRemarks
		}

		row := []string{
			strconv.FormatUint(uint64(item.ID), 10),
			item.Title,
			item.Category,
			item.Status,
			item.Student.FullName,
			item.Student.StudentNumber,
			item.Student.Email,
			strings.ReplaceAll(item.Description, ",", ";"),
			remarks,
			item.CreatedAt.UTC().Format(exportDateLayout),
			item.UpdatedAt.UTC().Format(exportDateLayout),
		}

		for i, value := range row {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(quoteCSV(value))
		}
		b.WriteString("\n")
	}

	return []byte(b.String())
}

func quoteCSV(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}
