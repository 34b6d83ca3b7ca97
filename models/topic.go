package models

import "time"

// SignUpTopic is a topic students can sign up for within an assignment.
type SignUpTopic struct {
	ID              int       `gorm:"primaryKey;column:id" json:"id"`
	TopicName       string    `gorm:"column:topic_name" json:"topic_name"`
	AssignmentID    int       `gorm:"column:assignment_id;index" json:"assignment_id"`
	MaxChoosers     int       `gorm:"column:max_choosers" json:"max_choosers"`
	Category        *string   `gorm:"column:category" json:"category,omitempty"`
	TopicIdentifier string    `gorm:"column:topic_identifier" json:"topic_identifier"`
	Description     *string   `gorm:"column:description" json:"description,omitempty"`
	Link            *string   `gorm:"column:link" json:"link,omitempty"`
	CreatedAt       time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TagPromptDeployment enables answer tagging prompts for a rubric of an assignment.
type TagPromptDeployment struct {
	ID              int     `gorm:"primaryKey;column:id" json:"id"`
	TagPromptID     int     `gorm:"column:tag_prompt_id" json:"tag_prompt_id"`
	AssignmentID    int     `gorm:"column:assignment_id;index" json:"assignment_id"`
	QuestionnaireID int     `gorm:"column:questionnaire_id" json:"questionnaire_id"`
	QuestionType    string  `gorm:"column:question_type" json:"question_type"`
	AnswerLengthMin *int    `gorm:"column:answer_length_threshold" json:"answer_length_threshold,omitempty"`
	Note            *string `gorm:"column:note" json:"note,omitempty"`
}

// Suggestion is a topic proposed by a student.
type Suggestion struct {
	ID           int       `gorm:"primaryKey;column:id" json:"id"`
	AssignmentID int       `gorm:"column:assignment_id;index" json:"assignment_id"`
	Title        string    `gorm:"column:title" json:"title"`
	Description  string    `gorm:"column:description" json:"description"`
	Status       string    `gorm:"column:status" json:"status"`
	UnityID      string    `gorm:"column:unityID" json:"unity_id"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
}

func (SignUpTopic) TableName() string {
	return "sign_up_topics"
}

func (TagPromptDeployment) TableName() string {
	return "tag_prompt_deployments"
}

func (Suggestion) TableName() string {
	return "suggestions"
}
