package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"assignment-management-api/models"
	"assignment-management-api/utils"
)

// AssignmentForm is the editable shape of an assignment as posted by the edit page.
type AssignmentForm struct {
	Assignment               AssignmentAttributes                `json:"assignment"`
	DueDates                 []DueDateAttributes                 `json:"due_date"`
	AssignmentQuestionnaires []AssignmentQuestionnaireAttributes `json:"assignment_questionnaire"`
}

type AssignmentAttributes struct {
	ID                     int    `json:"id"`
	Name                   string `json:"name"`
	// Nil keeps the current course on update.
	CourseID               *int   `json:"course_id"`
	InstructorID           int    `json:"instructor_id"`
	DirectoryPath          string `json:"directory_path"`
	SpecLocation           string `json:"spec_location"`
	MaxTeamSize            int    `json:"max_team_size"`
	StaggeredDeadline      bool   `json:"staggered_deadline"`
	NumReviewRounds        int    `json:"rounds_of_reviews"`
	UseBookmark            bool   `json:"use_bookmark"`
	IsAnswerTaggingAllowed bool   `json:"is_answer_tagging_allowed"`
	// Nil leaves the current setting untouched.
	ReviewerIsTeam   *bool `json:"reviewer_is_team"`
	AllowSuggestions bool  `json:"allow_suggestions"`
	Private          bool  `json:"private"`
}

type DueDateAttributes struct {
	ID             int                 `json:"id"`
	DeadlineTypeID models.DeadlineType `json:"deadline_type_id"`
	DueAt          string              `json:"due_at"`
	DeadlineName   *string             `json:"deadline_name"`
	DescriptionURL *string             `json:"description_url"`
	Round          int                 `json:"round"`
	Threshold      int                 `json:"threshold"`
}

type AssignmentQuestionnaireAttributes struct {
	ID                  int  `json:"id"`
	QuestionnaireID     *int `json:"questionnaire_id"`
	QuestionnaireWeight int  `json:"questionnaire_weight"`
	UsedInRound         *int `json:"used_in_round"`
	NotificationLimit   int  `json:"notification_limit"`
	Dropdown            bool `json:"dropdown"`
}

// NewAssignmentForm returns the blank form shown on the new assignment page.
func NewAssignmentForm(user models.User) AssignmentForm {
	return AssignmentForm{
		Assignment: AssignmentAttributes{
			InstructorID:    user.ID,
			MaxTeamSize:     1,
			NumReviewRounds: 1,
		},
		DueDates:                 []DueDateAttributes{},
		AssignmentQuestionnaires: []AssignmentQuestionnaireAttributes{},
	}
}

// withoutEmptyQuestionnaires drops rubric rows that name no questionnaire.
func withoutEmptyQuestionnaires(rows []AssignmentQuestionnaireAttributes) []AssignmentQuestionnaireAttributes {
	kept := make([]AssignmentQuestionnaireAttributes, 0, len(rows))
	for _, row := range rows {
		if row.QuestionnaireID == nil || *row.QuestionnaireID <= 0 {
			continue
		}
		kept = append(kept, row)
	}
	return kept
}

// buildBundle validates form and turns it into rows ready to persist.
// base is the stored assignment for updates and nil for creation.
func (s *AssignmentService) buildBundle(ctx context.Context, user models.User, form AssignmentForm, base *models.Assignment, loc *time.Location) (*AssignmentBundle, error) {
	attrs := form.Assignment

	var assignment models.Assignment
	if base != nil {
		assignment = *base
		assignment.Instructor, assignment.Course = nil, nil
	}

	assignment.Name = utils.SanitizeInput(attrs.Name)
	if assignment.Name == "" {
		return nil, ErrAssignmentNameRequired
	}
	directory, err := utils.CleanDirectoryPath(attrs.DirectoryPath)
	if err != nil {
		return nil, err
	}
	assignment.DirectoryPath = directory
	// On update a missing course keeps the current one; course moves go through SetAssignmentCourse.
	if attrs.CourseID != nil || base == nil {
		assignment.CourseID = attrs.CourseID
	}
	assignment.SpecLocation = strings.TrimSpace(attrs.SpecLocation)
	assignment.MaxTeamSize = attrs.MaxTeamSize
	if assignment.MaxTeamSize < 1 {
		assignment.MaxTeamSize = 1
	}
	assignment.NumReviewRounds = attrs.NumReviewRounds
	if assignment.NumReviewRounds < 1 {
		assignment.NumReviewRounds = 1
	}
	assignment.StaggeredDeadline = attrs.StaggeredDeadline
	assignment.UseBookmark = attrs.UseBookmark
	assignment.IsAnswerTaggingAllowed = attrs.IsAnswerTaggingAllowed
	assignment.AllowSuggestions = attrs.AllowSuggestions
	assignment.Private = attrs.Private
	if attrs.ReviewerIsTeam != nil {
		assignment.ReviewerIsTeam = *attrs.ReviewerIsTeam
	}
	switch {
	case attrs.InstructorID > 0:
		assignment.InstructorID = attrs.InstructorID
	case assignment.InstructorID == 0:
		assignment.InstructorID = user.ID
	}

	excludeID := 0
	if base != nil {
		excludeID = base.ID
	}
	taken, err := s.store.AssignmentNameTaken(ctx, assignment.Name, assignment.CourseID, excludeID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateAssignmentName
	}

	dueDates := make([]models.DueDate, 0, len(form.DueDates))
	for _, row := range form.DueDates {
		if !row.DeadlineTypeID.Valid() {
			return nil, fmt.Errorf("%w: unknown deadline type %d", ErrInvalidDueDate, row.DeadlineTypeID)
		}
		dueAt, err := ParseDueAt(row.DueAt, loc)
		if err != nil {
			return nil, err
		}
		threshold := row.Threshold
		if threshold <= 0 {
			threshold = models.DefaultReminderThreshold
		}
		dueDates = append(dueDates, models.DueDate{
			ID:             row.ID,
			ParentID:       assignment.ID,
			DeadlineTypeID: row.DeadlineTypeID,
			DueAt:          dueAt,
			DeadlineName:   row.DeadlineName,
			DescriptionURL: row.DescriptionURL,
			Round:          row.Round,
			Threshold:      threshold,
			Type:           "AssignmentDueDate",
		})
	}

	aqs := make([]models.AssignmentQuestionnaire, 0, len(form.AssignmentQuestionnaires))
	for _, row := range withoutEmptyQuestionnaires(form.AssignmentQuestionnaires) {
		limit := row.NotificationLimit
		if limit <= 0 {
			limit = 15
		}
		aqs = append(aqs, models.AssignmentQuestionnaire{
			ID:                  row.ID,
			AssignmentID:        assignment.ID,
			QuestionnaireID:     row.QuestionnaireID,
			UserID:              user.ID,
			QuestionnaireWeight: row.QuestionnaireWeight,
			UsedInRound:         row.UsedInRound,
			NotificationLimit:   limit,
			DropdownRubric:      row.Dropdown,
		})
	}
	if !rubricWeightsValid(aqs) {
		return nil, ErrRubricWeights
	}

	return &AssignmentBundle{
		Assignment:               assignment,
		DueDates:                 dueDates,
		AssignmentQuestionnaires: aqs,
	}, nil
}
