package services

import (
	"assignment-management-api/models"
)

// DueDateSummary is the per-type view of an assignment's due dates.
type DueDateSummary struct {
	ByType              map[string][]models.DueDate `json:"by_type"`
	NumSubmissionRounds int                         `json:"num_submissions_round"`
	NumReviewRounds     int                         `json:"num_reviews_round"`

	// Only populated for staggered assignments.
	Staggered          bool             `json:"staggered_deadline"`
	ReviewRounds       int              `json:"review_rounds,omitempty"`
	SubmissionDueDates []models.DueDate `json:"assignment_submission_due_dates,omitempty"`
	ReviewDueDates     []models.DueDate `json:"assignment_review_due_dates,omitempty"`

	NameURLPresent       bool `json:"due_date_nameurl_not_empty"`
	MetareviewAllowed    bool `json:"metareview_allowed"`
	DropTopicAllowed     bool `json:"drop_topic_allowed"`
	SignupAllowed        bool `json:"signup_allowed"`
	TeamFormationAllowed bool `json:"team_formation_allowed"`
}

// ClassifyDueDates partitions due dates by deadline type and derives the
// per-type flags. Input order is preserved within each bucket.
func ClassifyDueDates(assignment models.Assignment, dueDates []models.DueDate) DueDateSummary {
	summary := DueDateSummary{
		ByType:    make(map[string][]models.DueDate),
		Staggered: assignment.StaggeredDeadline,
	}

	for _, dd := range dueDates {
		key := dd.DeadlineTypeID.String()
		summary.ByType[key] = append(summary.ByType[key], dd)

		if dd.HasNameOrURL() {
			summary.NameURLPresent = true
		}

		switch dd.DeadlineTypeID {
		case models.DeadlineTypeSubmission:
			summary.NumSubmissionRounds++
		case models.DeadlineTypeReview:
			summary.NumReviewRounds++
		case models.DeadlineTypeMetareview:
			summary.MetareviewAllowed = true
		case models.DeadlineTypeDropTopic:
			summary.DropTopicAllowed = true
		case models.DeadlineTypeSignUp:
			summary.SignupAllowed = true
		case models.DeadlineTypeTeamFormation:
			summary.TeamFormationAllowed = true
		}
	}

	if assignment.StaggeredDeadline {
		summary.ReviewRounds = assignment.NumReviewRounds
		summary.SubmissionDueDates = summary.ByType[models.DeadlineTypeSubmission.String()]
		summary.ReviewDueDates = summary.ByType[models.DeadlineTypeReview.String()]
	}
	return summary
}

// NormalizeDueDates returns copies of dueDates whose missing deadline name and
// description URL are set to "".
func NormalizeDueDates(dueDates []models.DueDate) []models.DueDate {
	out := make([]models.DueDate, len(dueDates))
	for i, dd := range dueDates {
		if dd.DeadlineName == nil {
			dd.DeadlineName = models.StringPtr("")
		}
		if dd.DescriptionURL == nil {
			dd.DescriptionURL = models.StringPtr("")
		}
		out[i] = dd
	}
	return out
}

// ReviewVaries reports whether any rubric is bound to a specific review round.
func ReviewVaries(aqs []models.AssignmentQuestionnaire) bool {
	for _, aq := range aqs {
		if aq.UsedInRound != nil {
			return true
		}
	}
	return false
}
