package models

import (
	"strings"
	"time"
)

// Questionnaire type tags (questionnaires.type).
const (
	ReviewQuestionnaire         = "ReviewQuestionnaire"
	MetareviewQuestionnaire     = "MetareviewQuestionnaire"
	AuthorFeedbackQuestionnaire = "AuthorFeedbackQuestionnaire"
	TeammateReviewQuestionnaire = "TeammateReviewQuestionnaire"
	BookmarkRatingQuestionnaire = "BookmarkRatingQuestionnaire"
)

const questionnaireSuffix = "Questionnaire"

type Questionnaire struct {
	ID           int       `gorm:"primaryKey;column:id" json:"id"`
	Name         string    `gorm:"column:name" json:"name"`
	Type         string    `gorm:"column:type" json:"type"`
	InstructorID int       `gorm:"column:instructor_id" json:"instructor_id"`
	Private      bool      `gorm:"column:private" json:"private"`
	MinScore     int       `gorm:"column:min_question_score" json:"min_question_score"`
	MaxScore     int       `gorm:"column:max_question_score" json:"max_question_score"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Questionnaire) TableName() string {
	return "questionnaires"
}

// RubricDisplayName strips the "Questionnaire" suffix: "TeammateReviewQuestionnaire" -> "TeammateReview".
func RubricDisplayName(questionnaireType string) string {
	return strings.TrimSuffix(questionnaireType, questionnaireSuffix)
}

// AssignmentQuestionnaire attaches a rubric to an assignment.
type AssignmentQuestionnaire struct {
	ID                  int  `gorm:"primaryKey;column:id" json:"id"`
	AssignmentID        int  `gorm:"column:assignment_id;index" json:"assignment_id"`
	QuestionnaireID     *int `gorm:"column:questionnaire_id" json:"questionnaire_id"`
	UserID              int  `gorm:"column:user_id" json:"user_id"`
	QuestionnaireWeight int  `gorm:"column:questionnaire_weight" json:"questionnaire_weight"`
	UsedInRound         *int `gorm:"column:used_in_round" json:"used_in_round"`
	NotificationLimit   int  `gorm:"column:notification_limit;default:15" json:"notification_limit"`
	DropdownRubric      bool `gorm:"column:dropdown" json:"dropdown"`

	Questionnaire *Questionnaire `gorm:"foreignKey:QuestionnaireID" json:"questionnaire,omitempty"`
}

func (AssignmentQuestionnaire) TableName() string {
	return "assignment_questionnaires"
}
