package dto

// AdminStats is the organisation-wide dashboard payload.
type AdminStats struct {
	ActiveSurveys     int `json:"activeSurveys"`
	TotalResponses    int `json:"totalResponses"`
	ActiveResearchers int `json:"activeResearchers"`
	CompletionRate    int `json:"completionRate"`
}

// ResearcherStats is the personal dashboard payload of a researcher.
type ResearcherStats struct {
	CompletedSurveys  int `json:"completedSurveys"`
	InProgressSurveys int `json:"inProgressSurveys"`
	TodaySurveys      int `json:"todaySurveys"`
	SuccessRate       int `json:"successRate"`
}

// AdminStatCounts carries the raw aggregates the admin rates are derived from.
type AdminStatCounts struct {
	ActiveSurveys      int `db:"active_surveys"`
	CompletedResponses int `db:"completed_responses"`
	TotalResponses     int `db:"total_responses"`
	ActiveResearchers  int `db:"active_researchers"`
}

// ResearcherStatCounts carries the raw aggregates for one researcher.
type ResearcherStatCounts struct {
	CompletedResponses int `db:"completed_responses"`
	TotalResponses     int `db:"total_responses"`
	DraftAssignments   int `db:"draft_assignments"`
	CompletedToday     int `db:"completed_today"`
}
