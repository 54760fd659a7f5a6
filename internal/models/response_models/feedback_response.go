package response_models

import "feedbackportal/internal/models/db_models"

type FeedbackItem struct {
	db_models.Feedback
	SessionName string `json:"sessionName"`
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

type FeedbackPage struct {
	Items      []FeedbackItem `json:"items"`
	Pagination Pagination     `json:"pagination"`
}

type BucketCount struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

type FeedbackStats struct {
	Total                int64         `json:"total"`
	Positive             int64         `json:"positive"`
	Neutral              int64         `json:"neutral"`
	Negative             int64         `json:"negative"`
	Missed               int64         `json:"missed"`
	AverageRating        *float64      `json:"averageRating"`
	RatingDistribution   []BucketCount `json:"ratingDistribution"`
	CategoryDistribution []BucketCount `json:"categoryDistribution"`
	StatusDistribution   []BucketCount `json:"statusDistribution"`
}

type BulkUpdateResult struct {
	ModifiedCount int64 `json:"modifiedCount"`
}
