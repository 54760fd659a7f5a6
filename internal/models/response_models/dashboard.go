package response_models

type DashboardKPIs struct {
	TotalSessions    int64    `json:"totalSessions"`
	UpcomingSessions int64    `json:"upcomingSessions"`
	TotalAttendees   int64    `json:"totalAttendees"`
	ActualAttendees  int64    `json:"actualAttendees"`
	TotalFeedback    int64    `json:"totalFeedback"`
	AverageRating    *float64 `json:"averageRating"`
	// ResponseRate is feedback per registered attendee, as a percentage.
	ResponseRate float64 `json:"responseRate"`
}

type DashboardOverview struct {
	KPIs           DashboardKPIs  `json:"kpis"`
	RecentFeedback []FeedbackItem `json:"recentFeedback"`
}
