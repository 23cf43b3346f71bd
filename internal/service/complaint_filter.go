package service

import (
	"math"
	"strings"
	"time"

	"github.com/noah-isme/campus-complaints-api/internal/dto"
	"github.com/noah-isme/campus-complaints-api/internal/models"
)

// stalePendingAge is how long a complaint may wait in pending before it is flagged.
const stalePendingAge = 7 * 24 * time.Hour

// FilterComplaints applies the dashboard search controls to an already fetched list.
// The search term matches title or description case-insensitively and, when matchSubmitter
// is set, the submitter's full name. Status and category match exactly; "" and "all" match
// everything. Order is preserved.
func FilterComplaints(items []models.Complaint, filter dto.ComplaintFilter, matchSubmitter bool) []models.Complaint {
	term := strings.ToLower(filter.Search)
	result := make([]models.Complaint, 0, len(items))

	for _, item := range items {
		if !matchesSearch(item, term, matchSubmitter) {
			continue
		}
		if !matchesExact(filter.Status, item.Status) {
			continue
		}
		if !matchesExact(filter.Category, item.Category) {
			continue
		}
		result = append(result, item)
	}

	return result
}

func matchesSearch(item models.Complaint, term string, matchSubmitter bool) bool {
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(item.Title), term) || strings.Contains(strings.ToLower(item.Description), term) {
		return true
	}
	return matchSubmitter && strings.Contains(strings.ToLower(item.Student.FullName), term)
}

func matchesExact(want, got string) bool {
	return want == "" || want == dto.FilterAll || want == got
}

// SummarizeComplaints counts complaints per status over the full set.
func SummarizeComplaints(items []models.Complaint) dto.ComplaintSummary {
	summary := dto.ComplaintSummary{Total: len(items)}
	for _, item := range items {
		switch item.Status {
		case models.StatusPending:
			summary.Pending++
		case models.StatusInProgress:
			summary.InProgress++
		case models.StatusResolved:
			summary.Resolved++
		case models.StatusRejected:
			summary.Rejected++
		}
	}
	return summary
}

// BuildAnalytics derives the admin metrics from a fetched snapshot.
func BuildAnalytics(items []models.Complaint, now time.Time) dto.ComplaintAnalytics {
	byCategory := make(map[string]int, len(models.Categories))
	for _, category := range models.Categories {
		byCategory[category] = 0
	}
	byStatus := make(map[string]int, len(models.Statuses))
	for _, status := range models.Statuses {
		byStatus[status] = 0
	}

	var resolvedDays float64
	resolved := 0
	stale := 0

	for _, item := range items {
		byCategory[item.Category]++
		byStatus[item.Status]++

		switch item.Status {
		case models.StatusResolved:
			resolved++
			resolvedDays += item.UpdatedAt.Sub(item.CreatedAt).Hours() / 24
		case models.StatusPending:
			if now.Sub(item.CreatedAt) > stalePendingAge {
				stale++
			}
		}
	}

	analytics := dto.ComplaintAnalytics{
		ByCategory:   byCategory,
		ByStatus:     byStatus,
		StalePending: stale,
		GeneratedAt:  now,
	}

	if resolved > 0 {
		analytics.AverageResolutionDays = roundTenth(resolvedDays / float64(resolved))
	}
	if len(items) > 0 {
		analytics.ResolutionRate = roundTenth(float64(resolved) / float64(len(items)) * 100)
	}

	return analytics
}

func roundTenth(value float64) float64 {
	return math.Round(value*10) / 10
}
