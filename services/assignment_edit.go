package services

import (
	"context"
	"fmt"

	"assignment-management-api/models"
)

// EditView is everything the assignment edit page shows.
type EditView struct {
	Assignment               models.Assignment                `json:"assignment"`
	Topics                   []models.SignUpTopic             `json:"topics"`
	AssignmentQuestionnaires []models.AssignmentQuestionnaire `json:"assignment_questionnaires"`
	DueDates                 []models.DueDate                 `json:"due_dates"`
	DueDateSummary
	ReviewVaries         bool                         `json:"review_vary_check"`
	ParticipantsCount    int64                        `json:"participants_count"`
	TeamsCount           int                          `json:"teams_count"`
	TagPromptDeployments []models.TagPromptDeployment `json:"tag_prompt_deployments,omitempty"`
	UseBookmark          bool                         `json:"use_bookmark"`

	MissingRubrics   []string           `json:"missing_rubrics"`
	MissingDirectory bool               `json:"missing_directory"`
	Timezone         TimezoneResolution `json:"timezone"`
	TimezoneMissing  bool               `json:"timezone_missing"`
	Flash            Flash              `json:"flash"`
}

// EditView loads the assignment with its due dates, rubrics and topics, ready for display in
// the acting user's timezone. Configuration gaps are reported both as fields and as the flash
// message; the last gap found wins the flash.
func (s *AssignmentService) EditView(ctx context.Context, user models.User, assignmentID int) (*EditView, error) {
	assignment, err := s.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	view := &EditView{Assignment: *assignment, UseBookmark: assignment.UseBookmark}

	if view.Topics, err = s.store.ListTopics(ctx, assignmentID); err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	if view.AssignmentQuestionnaires, err = s.store.ListAssignmentQuestionnaires(ctx, assignmentID); err != nil {
		return nil, fmt.Errorf("list questionnaires: %w", err)
	}
	dueDates, err := s.store.ListDueDates(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("list due dates: %w", err)
	}
	if view.ParticipantsCount, err = s.store.CountParticipants(ctx, assignmentID); err != nil {
		return nil, fmt.Errorf("count participants: %w", err)
	}
	teams, err := s.store.ListTeams(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	view.TeamsCount = len(teams)

	view.Timezone = s.ResolveTimezone(ctx, user, assignment.InstructorID)
	if view.Timezone.Fallback() {
		view.TimezoneMissing = true
		view.Flash.Error = MsgTimezoneNotSpecified
	}
	view.DueDates = AdjustDueDates(NormalizeDueDates(dueDates), view.Timezone.Location)
	view.DueDateSummary = ClassifyDueDates(*assignment, view.DueDates)
	view.ReviewVaries = ReviewVaries(view.AssignmentQuestionnaires)

	view.MissingRubrics = MissingRubrics(view.AssignmentQuestionnaires, RubricRequirements{
		TeamAssignment:    assignment.IsTeamAssignment(),
		UseBookmark:       assignment.UseBookmark,
		MetareviewAllowed: view.MetareviewAllowed,
	})
	if len(view.MissingRubrics) > 0 {
		view.Flash.Error = MissingRubricsMessage(view.MissingRubrics, assignment.Name)
	}

	if !assignment.HasDirectoryPath() {
		view.MissingDirectory = true
		view.Flash.Error = MsgMissingDirectory
	}

	if assignment.IsAnswerTaggingAllowed {
		if view.TagPromptDeployments, err = s.store.ListTagPromptDeployments(ctx, assignmentID); err != nil {
			return nil, fmt.Errorf("list tag prompt deployments: %w", err)
		}
	}
	return view, nil
}
