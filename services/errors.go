package services

import (
	"errors"

	"assignment-management-api/utils"
)

// Errors whose text is shown to the user as-is.
var (
	ErrAssignmentNotFound       = errors.New("assignment not found")
	ErrUserNotFound             = errors.New("user not found")
	ErrCourseNotFound           = errors.New("course not found")
	ErrAssignmentNameRequired   = errors.New("Name can't be blank")
	ErrDuplicateAssignmentName  = errors.New("The assignment name is already present.")
	ErrRubricWeights            = errors.New("Total weight of rubrics should add up to either 0 or 100%")
	ErrInvalidDueDate           = errors.New("invalid due date")
	ErrInvalidQuestionnaireLink = errors.New("invalid questionnaire link")
	ErrReviewRoundsReduced      = errors.New("There has been some submissions for the rounds of reviews that you're trying to reduce. You can only increase the round of review.")
	ErrReviewerIsTeamLocked     = errors.New("You cannot change whether reviewers are teams if reviews have already been completed.")
	ErrNotAuthorizedToDelete    = errors.New("You are not authorized to delete this assignment.")
	ErrResponsesExist           = errors.New("There is at least one review response that exists")
	ErrMailJobNotFound          = errors.New("delayed mail job not found")
)

// IsFormRejection reports whether err is a validation outcome rather than an infrastructure failure.
func IsFormRejection(err error) bool {
	for _, target := range []error{
		ErrAssignmentNameRequired,
		ErrDuplicateAssignmentName,
		ErrRubricWeights,
		ErrInvalidDueDate,
		ErrInvalidQuestionnaireLink,
		ErrReviewRoundsReduced,
		ErrReviewerIsTeamLocked,
		utils.ErrInvalidDirectoryPath,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
