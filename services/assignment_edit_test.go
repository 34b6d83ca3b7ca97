package services

import (
	"context"
	"testing"

	"assignment-management-api/models"
)

func TestEditViewReportsMissingRubrics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.seedAssignment(t, "Program 1").Assignment.ID
	f.store.AddParticipant(models.Participant{ParentID: id, UserID: f.student.ID})
	f.store.AddTeam(models.Team{Name: "Team A", ParentID: id})
	f.store.AddTeam(models.Team{Name: "Course team", ParentID: id, Type: "CourseTeam"})

	view, err := f.svc.EditView(ctx, f.instructor, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A metareview deadline exists, so a metareview rubric is required.
	want := "You did not specify all the necessary rubrics. You need [Metareview] of assignment Program 1 before saving the assignment."
	if view.Flash.Error != want {
		t.Fatalf("expected %q, got %q", want, view.Flash.Error)
	}
	if view.TimezoneMissing || view.MissingDirectory {
		t.Fatalf("unexpected warnings: %+v", view)
	}
	if view.ParticipantsCount != 1 || view.TeamsCount != 1 || len(view.Topics) != 1 {
		t.Fatalf("unexpected counts: participants=%d teams=%d topics=%d", view.ParticipantsCount, view.TeamsCount, len(view.Topics))
	}
	if view.NumSubmissionRounds != 1 || view.NumReviewRounds != 1 || !view.MetareviewAllowed {
		t.Fatalf("unexpected summary: %+v", view.DueDateSummary)
	}
	for _, dd := range view.DueDates {
		if dd.DueAt.Location().String() != "America/New_York" {
			t.Fatalf("expected due dates in the user's zone, got %v", dd.DueAt.Location())
		}
		if dd.DeadlineName == nil || dd.DescriptionURL == nil {
			t.Fatalf("expected normalized name and URL: %+v", dd)
		}
	}
	if view.TagPromptDeployments != nil {
		t.Fatalf("tag prompts are only loaded when answer tagging is allowed")
	}
}

func TestEditViewLastWarningWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bundle := f.seedAssignment(t, "Program 1")
	bundle.Assignment.DirectoryPath = ""
	bundle.Assignment.IsAnswerTaggingAllowed = true
	if err := f.store.SaveAssignment(ctx, &bundle.Assignment); err != nil {
		t.Fatalf("save: %v", err)
	}
	f.store.AddTagPromptDeployment(models.TagPromptDeployment{AssignmentID: bundle.Assignment.ID, TagPromptID: 1, QuestionnaireID: f.review.ID})

	view, err := f.svc.EditView(ctx, f.ta, bundle.Assignment.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !view.TimezoneMissing || len(view.MissingRubrics) == 0 || !view.MissingDirectory {
		t.Fatalf("expected every warning to be reported: %+v", view)
	}
	if view.Flash.Error != MsgMissingDirectory {
		t.Fatalf("expected the directory warning in the flash, got %q", view.Flash.Error)
	}
	if view.Timezone.Source != TimezoneSourceParent {
		t.Fatalf("expected parent timezone, got %+v", view.Timezone)
	}
	if len(view.TagPromptDeployments) != 1 {
		t.Fatalf("expected tag prompt deployments, got %d", len(view.TagPromptDeployments))
	}
}

func TestEditViewWarnsWhenPreferredZoneIsUnusable(t *testing.T) {
	f := newFixture(t)
	id := f.seedAssignment(t, "Program 1").Assignment.ID
	user := f.instructor
	user.TimezonePref = models.StringPtr("Mars/Olympus")

	view, err := f.svc.EditView(context.Background(), user, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !view.TimezoneMissing {
		t.Fatalf("expected a timezone warning for an unloadable preference")
	}
	if view.Timezone.Source != TimezoneSourceDefault || view.Timezone.Name != "UTC" {
		t.Fatalf("expected UTC fallback, got %+v", view.Timezone)
	}
}

func TestEditViewMissingAssignment(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.EditView(context.Background(), f.instructor, 9999); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListSubmissionsOnlyAssignmentTeams(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.seedAssignment(t, "Program 1").Assignment.ID
	f.store.AddTeam(models.Team{Name: "Team B", ParentID: id})
	f.store.AddTeam(models.Team{Name: "Team A", ParentID: id})
	f.store.AddTeam(models.Team{Name: "CSC 517 team", ParentID: id, Type: "CourseTeam"})

	assignment, teams, err := f.svc.ListSubmissions(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if assignment.Name != "Program 1" || len(teams) != 2 || teams[0].Name != "Team A" {
		t.Fatalf("unexpected submissions: %+v", teams)
	}
}
