package db_models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

type QuestionType string

const (
	QuestionRating QuestionType = "rating"
	QuestionText   QuestionType = "text"
)

type Question struct {
	Text string       `json:"text"`
	Type QuestionType `json:"type"`
}

// QuestionSet groups a session questionnaire into its three sections.
type QuestionSet struct {
	Initial  []Question `json:"initial"`
	Positive []Question `json:"positive"`
	Negative []Question `json:"negative"`
}

// Clean drops questions with blank text and defaults missing types to rating.
func (q QuestionSet) Clean() QuestionSet {
	return QuestionSet{
		Initial:  cleanQuestions(q.Initial),
		Positive: cleanQuestions(q.Positive),
		Negative: cleanQuestions(q.Negative),
	}
}

func cleanQuestions(in []Question) []Question {
	out := make([]Question, 0, len(in))
	for _, q := range in {
		text := strings.TrimSpace(q.Text)
		if text == "" {
			continue
		}
		if q.Type != QuestionText {
			q.Type = QuestionRating
		}
		out = append(out, Question{Text: text, Type: q.Type})
	}
	return out
}

type Session struct {
	BaseModel
	Name        string                          `gorm:"not null" json:"name"`
	Description string                          `gorm:"type:text" json:"description"`
	Date        time.Time                       `gorm:"not null;index" json:"date"`
	Questions   datatypes.JSONType[QuestionSet] `json:"questions"`
	Attendees   []Attendee                      `gorm:"constraint:OnDelete:CASCADE" json:"attendees"`
}

// FindAttendee looks up a roster entry by email, ignoring case.
func (s *Session) FindAttendee(email string) *Attendee {
	email = strings.ToLower(strings.TrimSpace(email))
	for i := range s.Attendees {
		if strings.ToLower(s.Attendees[i].Email) == email {
			return &s.Attendees[i]
		}
	}
	return nil
}
