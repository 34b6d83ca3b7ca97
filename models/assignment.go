package models

import (
	"strings"
	"time"
)

// Assignment represents the assignments table
type Assignment struct {
	ID                     int       `gorm:"primaryKey;column:id" json:"id"`
	Name                   string    `gorm:"column:name" json:"name"`
	CourseID               *int      `gorm:"column:course_id" json:"course_id"`
	InstructorID           int       `gorm:"column:instructor_id" json:"instructor_id"`
	DirectoryPath          string    `gorm:"column:directory_path" json:"directory_path"`
	SpecLocation           string    `gorm:"column:spec_location" json:"spec_location"`
	MaxTeamSize            int       `gorm:"column:max_team_size;default:1" json:"max_team_size"`
	StaggeredDeadline      bool      `gorm:"column:staggered_deadline" json:"staggered_deadline"`
	NumReviewRounds        int       `gorm:"column:rounds_of_reviews;default:1" json:"rounds_of_reviews"`
	UseBookmark            bool      `gorm:"column:use_bookmark" json:"use_bookmark"`
	IsAnswerTaggingAllowed bool      `gorm:"column:is_answer_tagging_allowed" json:"is_answer_tagging_allowed"`
	ReviewerIsTeam         bool      `gorm:"column:reviewer_is_team" json:"reviewer_is_team"`
	AllowSuggestions       bool      `gorm:"column:allow_suggestions" json:"allow_suggestions"`
	Private                bool      `gorm:"column:private" json:"private"`
	CreatedAt              time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt              time.Time `gorm:"column:updated_at" json:"updated_at"`

	// Relations
	Instructor *User   `gorm:"foreignKey:InstructorID" json:"instructor,omitempty"`
	Course     *Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}

func (Assignment) TableName() string {
	return "assignments"
}

// IsTeamAssignment reports whether more than one student may share a submission.
func (a Assignment) IsTeamAssignment() bool {
	return a.MaxTeamSize > 1
}

// HasDirectoryPath reports whether a submission directory has been configured.
func (a Assignment) HasDirectoryPath() bool {
	return strings.TrimSpace(a.DirectoryPath) != ""
}

// DefaultDirectoryPath is used when an assignment is created without one.
func DefaultDirectoryPath(assignmentID int) string {
	return "assignment_" + itoa(assignmentID)
}
