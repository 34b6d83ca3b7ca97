package services

import (
	"strings"

	"assignment-management-api/models"
)

// requiredRubrics lists the rubric types a fully configured assignment carries, in display order.
var requiredRubrics = []string{
	models.ReviewQuestionnaire,
	models.MetareviewQuestionnaire,
	models.AuthorFeedbackQuestionnaire,
	models.TeammateReviewQuestionnaire,
	models.BookmarkRatingQuestionnaire,
}

// RubricRequirements are the assignment flags that make some rubrics optional.
type RubricRequirements struct {
	TeamAssignment    bool
	UseBookmark       bool
	MetareviewAllowed bool
}

// MissingRubrics returns the required rubric types not attached through any
// association. Questionnaire links must have their Questionnaire loaded.
func MissingRubrics(aqs []models.AssignmentQuestionnaire, req RubricRequirements) []string {
	attached := make(map[string]bool, len(aqs))
	for _, aq := range aqs {
		if aq.QuestionnaireID == nil || aq.Questionnaire == nil {
			continue
		}
		attached[aq.Questionnaire.Type] = true
	}

	missing := make([]string, 0, len(requiredRubrics))
	for _, rubric := range requiredRubrics {
		if attached[rubric] {
			continue
		}
		switch rubric {
		case models.TeammateReviewQuestionnaire:
			if !req.TeamAssignment {
				continue
			}
		case models.MetareviewQuestionnaire:
			if !req.MetareviewAllowed {
				continue
			}
		case models.BookmarkRatingQuestionnaire:
			if !req.UseBookmark {
				continue
			}
		}
		missing = append(missing, rubric)
	}
	return missing
}

// NeededRubricsMessage renders missing rubric types as "[Review, Metareview]".
func NeededRubricsMessage(missing []string) string {
	if len(missing) == 0 {
		return ""
	}
	names := make([]string, len(missing))
	for i, rubric := range missing {
		names[i] = models.RubricDisplayName(rubric)
	}
	return "[" + strings.Join(names, ", ") + "]"
}

// rubricWeightsValid checks that the weights of attached rubrics add up to 0 or 100.
func rubricWeightsValid(aqs []models.AssignmentQuestionnaire) bool {
	total := 0
	for _, aq := range aqs {
		if aq.QuestionnaireID == nil {
			continue
		}
		total += aq.QuestionnaireWeight
	}
	return total == 0 || total == 100
}
