package services

import (
	"context"

	"assignment-management-api/models"
)

// AssignmentBundle is an assignment together with the rows saved alongside it.
type AssignmentBundle struct {
	Assignment               models.Assignment
	DueDates                 []models.DueDate
	AssignmentQuestionnaires []models.AssignmentQuestionnaire
	Topics                   []models.SignUpTopic

	// DropDeadlineTypes lists deadline types whose stored due dates are removed on update.
	DropDeadlineTypes []models.DeadlineType
}

// Store is the persistence surface of the assignment workflow.
// GormStore backs it with MySQL/PostgreSQL; MemoryStore keeps everything in process.
type Store interface {
	GetAssignment(ctx context.Context, id int) (*models.Assignment, error)
	AssignmentNameTaken(ctx context.Context, name string, courseID *int, excludeID int) (bool, error)
	ListDueDates(ctx context.Context, assignmentID int) ([]models.DueDate, error)
	ListAssignmentQuestionnaires(ctx context.Context, assignmentID int) ([]models.AssignmentQuestionnaire, error)
	ListTopics(ctx context.Context, assignmentID int) ([]models.SignUpTopic, error)
	ListTagPromptDeployments(ctx context.Context, assignmentID int) ([]models.TagPromptDeployment, error)
	ListTeams(ctx context.Context, assignmentID int) ([]models.Team, error)
	CountParticipants(ctx context.Context, assignmentID int) (int64, error)
	CountResponses(ctx context.Context, assignmentID int) (int64, error)
	ListParticipantEmails(ctx context.Context, assignmentID int) ([]string, error)
	ListSuggestions(ctx context.Context, assignmentID int) ([]models.Suggestion, error)

	GetUser(ctx context.Context, id int) (*models.User, error)
	FindUserByLogin(ctx context.Context, login string) (*models.User, error)
	GetCourse(ctx context.Context, id int) (*models.Course, error)
	IsTAForCourse(ctx context.Context, userID, courseID int) (bool, error)
	ListCoursesForUser(ctx context.Context, user models.User) ([]models.Course, error)

	// CreateAssignment inserts the bundle in one transaction and fills in the generated ids.
	CreateAssignment(ctx context.Context, bundle *AssignmentBundle) error
	// UpdateAssignment saves the assignment and upserts its due dates and rubric links in one transaction.
	UpdateAssignment(ctx context.Context, bundle *AssignmentBundle) error
	SaveAssignment(ctx context.Context, assignment *models.Assignment) error
	SetAssignmentCourse(ctx context.Context, assignmentID int, courseID *int) error
	// DeleteAssignment removes the assignment and its dependent rows, all or nothing.
	DeleteAssignment(ctx context.Context, assignmentID int) error
}
