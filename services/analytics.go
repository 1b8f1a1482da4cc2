package services

import (
	"nivaran-be/models"
	"nivaran-be/query"
)

type Summary struct {
	Metrics    query.Metrics         `json:"metrics"`
	ByCategory []query.CategoryCount `json:"byCategory"`
	ByPriority []query.PriorityCount `json:"byPriority"`
	Recent     []models.Issue        `json:"recent"`
}

type Trends struct {
	Daily   []query.DayCount   `json:"daily"`
	Weekly  []query.WeekCount  `json:"weekly"`
	Monthly []query.MonthPoint `json:"monthly"`
}

type Leaderboard struct {
	Citizens []query.CitizenRank `json:"citizens"`
	Wards    []query.WardRank    `json:"wards"`
}

// Summary, Trends and Leaderboard aggregate over canonical issues only, so a
// cluster of duplicate reports counts once.
func (s *IssueService) Summary() Summary {
	list := s.Canonical()
	return Summary{
		Metrics:    query.ComputeMetrics(list),
		ByCategory: query.CountByCategory(list),
		ByPriority: query.PriorityDistribution(list),
		Recent:     query.Recent(list, recentLimit),
	}
}

func (s *IssueService) Trends() Trends {
	list := s.Canonical()
	return Trends{
		Daily:   query.CountByDay(list),
		Weekly:  query.WeeklyReports(list),
		Monthly: query.MonthlyTrend(list),
	}
}

func (s *IssueService) Leaderboard(n int) Leaderboard {
	list := s.Canonical()
	return Leaderboard{
		Citizens: query.TopCitizens(list, n),
		Wards:    query.TopWards(list, n),
	}
}
