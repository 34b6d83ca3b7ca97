package services

import (
	"context"
	"fmt"
	"log"

	"assignment-management-api/models"
)

// CopyResult is the outcome of copying an assignment.
type CopyResult struct {
	AssignmentID       int   `json:"assignment_id"`
	DirectoryCollision bool  `json:"directory_collision"`
	Flash              Flash `json:"flash"`
}

// Copy duplicates an assignment's configuration into a new assignment owned by user.
// The submission directory is copied as-is; a collision is reported as a warning note.
func (s *AssignmentService) Copy(ctx context.Context, user models.User, assignmentID int) (*CopyResult, error) {
	source, err := s.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	dueDates, err := s.store.ListDueDates(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("list due dates: %w", err)
	}
	aqs, err := s.store.ListAssignmentQuestionnaires(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("list questionnaires: %w", err)
	}
	topics, err := s.store.ListTopics(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}

	copied := *source
	copied.ID = 0
	copied.Instructor, copied.Course = nil, nil
	copied.InstructorID = user.ID
	if copied.Name, err = s.copyName(ctx, source.Name, source.CourseID); err != nil {
		return nil, err
	}

	bundle := &AssignmentBundle{
		Assignment:               copied,
		DueDates:                 make([]models.DueDate, len(dueDates)),
		AssignmentQuestionnaires: make([]models.AssignmentQuestionnaire, len(aqs)),
		Topics:                   make([]models.SignUpTopic, len(topics)),
	}
	for i, dd := range dueDates {
		dd.ID = 0
		bundle.DueDates[i] = dd
	}
	for i, aq := range aqs {
		aq.ID = 0
		aq.Questionnaire = nil
		bundle.AssignmentQuestionnaires[i] = aq
	}
	for i, t := range topics {
		t.ID = 0
		bundle.Topics[i] = t
	}

	if err := s.store.CreateAssignment(ctx, bundle); err != nil {
		return nil, fmt.Errorf("copy assignment %d: %w", assignmentID, err)
	}
	s.scheduleReminders(ctx, bundle.Assignment.ID, bundle.DueDates)

	result := &CopyResult{AssignmentID: bundle.Assignment.ID}
	if bundle.Assignment.DirectoryPath == source.DirectoryPath {
		result.DirectoryCollision = true
		result.Flash.Note = MsgDirectoryCollisionNote
	}
	return result, nil
}

// copyName finds the first free "Copy of <name>" variant within the course.
func (s *AssignmentService) copyName(ctx context.Context, name string, courseID *int) (string, error) {
	base := "Copy of " + name
	candidate := base
	for n := 2; ; n++ {
		taken, err := s.store.AssignmentNameTaken(ctx, candidate, courseID, 0)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s (%d)", base, n)
	}
}

// CanDelete reports whether user may delete the assignment: any instructor, or
// the teaching assistant who created it.
func CanDelete(user models.User, assignment models.Assignment) bool {
	if user.IsInstructor() {
		return true
	}
	return user.IsTeachingAssistant() && user.ID == assignment.InstructorID
}

// Delete removes the assignment and everything hanging off it. Assignments that
// already have review responses are only removed when force is set.
func (s *AssignmentService) Delete(ctx context.Context, user models.User, assignmentID int, force bool) error {
	assignment, err := s.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return err
	}
	if !CanDelete(user, *assignment) {
		return ErrNotAuthorizedToDelete
	}

	if !force {
		responses, err := s.store.CountResponses(ctx, assignmentID)
		if err != nil {
			return fmt.Errorf("count responses: %w", err)
		}
		if responses > 0 {
			return fmt.Errorf("%w for %s.", ErrResponsesExist, assignment.Name)
		}
	}

	if err := s.store.DeleteAssignment(ctx, assignmentID); err != nil {
		return err
	}

	if s.queue != nil {
		if _, err := s.queue.DeleteForAssignment(ctx, assignmentID); err != nil {
			log.Printf("[assignments] clear reminders for deleted assignment %d: %v", assignmentID, err)
		}
	}
	return nil
}
