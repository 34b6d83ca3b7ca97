package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"assignment-management-api/models"
)

// Messages shown after workflow actions.
const (
	MsgTimezoneNotSpecified   = "You have not specified your preferred timezone yet. Please do this before you set up the deadlines."
	MsgMissingDirectory       = "You did not specify your submission directory."
	MsgAssignmentSaved        = "The assignment was successfully saved...."
	MsgCourseSaved            = "The assignment was successfully saved."
	MsgCreateFailed           = "Failed to create assignment"
	MsgUpdateIDsFailed        = "Failed to update assignment IDs"
	MsgCopyFailed             = "The assignment was not able to be copied. Please check the original assignment for missing information."
	MsgAssignmentDeleted      = "The assignment was successfully deleted."
	MsgDirectoryCollisionNote = "Warning: The submission directory for the copy of this assignment will be the same as the submission directory " +
		"for the existing assignment. This will allow student submissions to one assignment to overwrite submissions to the other assignment. " +
		"If you do not want this to happen, change the submission directory in the new copy of the assignment."
)

// TimezoneFallbackMessage is the warning shown when the user's own timezone could not be used.
func TimezoneFallbackMessage(zone string) string {
	return "We strongly suggest that instructors specify their preferred timezone to guarantee the correct display time. For now we assume you are in " + zone
}

// MissingRubricsMessage tells the instructor which rubrics still need to be attached.
func MissingRubricsMessage(missing []string, assignmentName string) string {
	return "You did not specify all the necessary rubrics. You need " + NeededRubricsMessage(missing) +
		" of assignment " + assignmentName + " before saving the assignment."
}

// AssignmentService implements the assignment create/edit/update/copy/delete workflow.
type AssignmentService struct {
	store Store
	queue MailQueue
	now   func() time.Time
}

// NewAssignmentService wires the workflow. queue may be nil, which disables reminder scheduling.
func NewAssignmentService(store Store, queue MailQueue) *AssignmentService {
	return &AssignmentService{store: store, queue: queue, now: time.Now}
}

// Store exposes the underlying persistence, for handlers that only read.
func (s *AssignmentService) Store() Store {
	return s.store
}

// CreateResult is the outcome of a create request.
type CreateResult struct {
	Form         AssignmentForm `json:"assignment_form"`
	AssignmentID int            `json:"assignment_id,omitempty"`
	Saved        bool           `json:"saved"`
	Flash        Flash          `json:"flash"`
	Errors       []string       `json:"errors,omitempty"`
}

// Create saves a new assignment when save is set; otherwise the form is echoed back untouched.
func (s *AssignmentService) Create(ctx context.Context, user models.User, form AssignmentForm, save bool) (*CreateResult, error) {
	if form.Assignment.InstructorID == 0 {
		form.Assignment.InstructorID = user.ID
	}
	result := &CreateResult{Form: form}
	if !save {
		return result, nil
	}

	tz := s.ResolveTimezone(ctx, user, user.ID)
	bundle, err := s.buildBundle(ctx, user, form, nil, tz.Location)
	if err != nil {
		if !IsFormRejection(err) {
			return nil, err
		}
		result.Flash.Error = MsgCreateFailed
		result.Errors = []string{err.Error()}
		return result, nil
	}

	if err := s.store.CreateAssignment(ctx, bundle); err != nil {
		return nil, fmt.Errorf("create assignment: %w", err)
	}
	result.AssignmentID = bundle.Assignment.ID

	if !bundle.Assignment.HasDirectoryPath() {
		bundle.Assignment.DirectoryPath = models.DefaultDirectoryPath(bundle.Assignment.ID)
		if err := s.store.SaveAssignment(ctx, &bundle.Assignment); err != nil {
			log.Printf("[assignments] set default directory for %d: %v", bundle.Assignment.ID, err)
			result.Flash.Error = MsgUpdateIDsFailed
			return result, nil
		}
	}

	s.scheduleReminders(ctx, bundle.Assignment.ID, bundle.DueDates)

	result.Saved = true
	result.Flash.Success = fmt.Sprintf("Assignment \"%s\" has been created successfully. ", bundle.Assignment.Name)
	return result, nil
}

// UpdateRequest is the body of an update. Without Form only the course is changed.
type UpdateRequest struct {
	Form              *AssignmentForm `json:"assignment_form"`
	MetareviewAllowed *bool           `json:"metareview_allowed"`
	CourseID          *int            `json:"course_id"`
}

// UpdateResult is the outcome of an update request.
type UpdateResult struct {
	AssignmentID int                `json:"assignment_id"`
	Saved        bool               `json:"saved"`
	CourseOnly   bool               `json:"course_only"`
	Flash        Flash              `json:"flash"`
	Timezone     TimezoneResolution `json:"timezone"`
}

// Update validates the submitted form and persists it, or rejects it without writing anything.
func (s *AssignmentService) Update(ctx context.Context, user models.User, assignmentID int, req UpdateRequest) (*UpdateResult, error) {
	current, err := s.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	result := &UpdateResult{AssignmentID: assignmentID}

	if req.Form == nil {
		result.CourseOnly = true
		if err := s.store.SetAssignmentCourse(ctx, assignmentID, req.CourseID); err != nil {
			result.Flash.Error = "Failed to save the assignment: " + err.Error()
			return result, nil
		}
		result.Saved = true
		result.Flash.Note = MsgCourseSaved
		return result, nil
	}
	form := *req.Form

	tz := s.ResolveTimezone(ctx, user, current.InstructorID)
	result.Timezone = tz
	if tz.Fallback() {
		result.Flash.Error = TimezoneFallbackMessage(tz.Name)
	}

	responses, err := s.store.CountResponses(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("count responses: %w", err)
	}
	if responses > 0 {
		requestedRounds := form.Assignment.NumReviewRounds
		if requestedRounds < 1 {
			requestedRounds = 1
		}
		if requestedRounds < current.NumReviewRounds {
			result.Flash.Error = ErrReviewRoundsReduced.Error()
			return result, nil
		}
		if rit := form.Assignment.ReviewerIsTeam; rit != nil && *rit != current.ReviewerIsTeam {
			result.Flash.Error = ErrReviewerIsTeamLocked.Error()
			return result, nil
		}
	}

	var dropTypes []models.DeadlineType
	if req.MetareviewAllowed != nil && !*req.MetareviewAllowed {
		dropTypes = append(dropTypes, models.DeadlineTypeMetareview)
		kept := make([]DueDateAttributes, 0, len(form.DueDates))
		for _, dd := range form.DueDates {
			if dd.DeadlineTypeID != models.DeadlineTypeMetareview {
				kept = append(kept, dd)
			}
		}
		form.DueDates = kept
	}

	bundle, err := s.buildBundle(ctx, user, form, current, tz.Location)
	if err != nil {
		if !IsFormRejection(err) {
			return nil, err
		}
		result.Flash.Error = "Failed to save the assignment: " + err.Error()
		return result, nil
	}
	bundle.DropDeadlineTypes = dropTypes

	if err := s.store.UpdateAssignment(ctx, bundle); err != nil {
		result.Flash.Error = "Failed to save the assignment: " + err.Error()
		return result, nil
	}

	if dueDates, err := s.store.ListDueDates(ctx, assignmentID); err == nil {
		s.scheduleReminders(ctx, assignmentID, dueDates)
	} else {
		log.Printf("[assignments] reload due dates for %d: %v", assignmentID, err)
	}

	result.Saved = true
	result.Flash.Note = MsgAssignmentSaved
	return result, nil
}

// Show loads a single assignment.
func (s *AssignmentService) Show(ctx context.Context, assignmentID int) (*models.Assignment, error) {
	return s.store.GetAssignment(ctx, assignmentID)
}

// Path returns the submission directory of the assignment, or "" when it cannot be read.
func (s *AssignmentService) Path(ctx context.Context, assignmentID int) string {
	assignment, err := s.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return ""
	}
	return assignment.DirectoryPath
}

// ListSubmissions returns the assignment and its submitting teams.
func (s *AssignmentService) ListSubmissions(ctx context.Context, assignmentID int) (*models.Assignment, []models.Team, error) {
	assignment, err := s.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return nil, nil, err
	}
	teams, err := s.store.ListTeams(ctx, assignmentID)
	if err != nil {
		return nil, nil, fmt.Errorf("list teams: %w", err)
	}
	return assignment, teams, nil
}

// CoursesForAssociation returns the assignment and the courses user may attach it to.
func (s *AssignmentService) CoursesForAssociation(ctx context.Context, user models.User, assignmentID int) (*models.Assignment, []models.Course, error) {
	assignment, err := s.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return nil, nil, err
	}
	courses, err := s.store.ListCoursesForUser(ctx, user)
	if err != nil {
		return nil, nil, fmt.Errorf("list courses: %w", err)
	}
	return assignment, courses, nil
}

// RemoveFromCourse detaches the assignment from its course.
func (s *AssignmentService) RemoveFromCourse(ctx context.Context, assignmentID int) error {
	return s.store.SetAssignmentCourse(ctx, assignmentID, nil)
}

// DelayedMailerView lists suggestions and queued reminders for an assignment.
type DelayedMailerView struct {
	Assignment  *models.Assignment  `json:"assignment"`
	Suggestions []models.Suggestion `json:"suggestions"`
	Jobs        []MailJob           `json:"jobs"`
}

func (s *AssignmentService) DelayedMailer(ctx context.Context, assignmentID int) (*DelayedMailerView, error) {
	assignment, err := s.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	suggestions, err := s.store.ListSuggestions(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("list suggestions: %w", err)
	}
	jobs := []MailJob{}
	if s.queue != nil {
		if jobs, err = s.queue.ListForAssignment(ctx, assignmentID); err != nil {
			return nil, fmt.Errorf("list mail jobs: %w", err)
		}
	}
	return &DelayedMailerView{Assignment: assignment, Suggestions: suggestions, Jobs: jobs}, nil
}

// DeleteDelayedMailerJob removes one queued reminder.
func (s *AssignmentService) DeleteDelayedMailerJob(ctx context.Context, jobID string) error {
	if s.queue == nil {
		return ErrMailJobNotFound
	}
	ok, err := s.queue.Delete(ctx, jobID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrMailJobNotFound
	}
	return nil
}

// scheduleReminders replaces the queued reminders of an assignment with one per future deadline.
func (s *AssignmentService) scheduleReminders(ctx context.Context, assignmentID int, dueDates []models.DueDate) int {
	if s.queue == nil {
		return 0
	}
	if _, err := s.queue.DeleteForAssignment(ctx, assignmentID); err != nil {
		log.Printf("[assignments] clear reminders for %d: %v", assignmentID, err)
		return 0
	}

	now := s.now()
	scheduled := 0
	for _, dd := range dueDates {
		runAt, ok := dd.ReminderAt()
		if !ok || !runAt.After(now) {
			continue
		}
		_, err := s.queue.Enqueue(ctx, MailJob{
			AssignmentID: assignmentID,
			DueDateID:    dd.ID,
			DeadlineType: dd.DeadlineTypeID,
			DueAt:        dd.DueAt.UTC(),
			RunAt:        runAt.UTC(),
		})
		if err != nil {
			log.Printf("[assignments] schedule reminder for due date %d: %v", dd.ID, err)
			continue
		}
		scheduled++
	}
	return scheduled
}

// IsNotFound reports whether err means a requested row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAssignmentNotFound) || errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrCourseNotFound)
}
