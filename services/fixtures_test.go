package services

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"assignment-management-api/models"
)

var fixedNow = time.Date(2030, 1, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store *MemoryStore
	queue *MemoryMailQueue
	svc   *AssignmentService

	instructor      models.User
	otherInstructor models.User
	ta              models.User
	otherTA         models.User
	student         models.User
	admin           models.User
	course          models.Course

	review         models.Questionnaire
	metareview     models.Questionnaire
	authorFeedback models.Questionnaire
	teammate       models.Questionnaire
	bookmark       models.Questionnaire
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := NewMemoryStore()
	queue := NewMemoryMailQueue()
	svc := NewAssignmentService(store, queue)
	svc.now = func() time.Time { return fixedNow }

	f := &fixture{store: store, queue: queue, svc: svc}
	f.instructor = store.AddUser(models.User{
		Name: "instructor6", Email: "instructor6@example.edu", RoleID: models.RoleInstructor,
		TimezonePref: models.StringPtr("America/New_York"),
	})
	f.otherInstructor = store.AddUser(models.User{
		Name: "instructor7", Email: "instructor7@example.edu", RoleID: models.RoleInstructor,
	})
	f.ta = store.AddUser(models.User{
		Name: "ta1", Email: "ta1@example.edu", RoleID: models.RoleTeachingAssistant,
		ParentID: models.IntPtr(f.instructor.ID),
	})
	f.otherTA = store.AddUser(models.User{
		Name: "ta2", Email: "ta2@example.edu", RoleID: models.RoleTeachingAssistant,
	})
	f.student = store.AddUser(models.User{
		Name: "student1", Email: "student1@example.edu", RoleID: models.RoleStudent,
	})
	f.admin = store.AddUser(models.User{
		Name: "admin", Email: "admin@example.edu", RoleID: models.RoleAdministrator,
		TimezonePref: models.StringPtr("UTC"),
	})
	f.course = store.AddCourse(models.Course{Name: "CSC 517", InstructorID: f.instructor.ID, DirectoryPath: "csc517"})
	store.AddTaMapping(f.ta.ID, f.course.ID)

	f.review = store.AddQuestionnaire(models.Questionnaire{Name: "Review rubric", Type: models.ReviewQuestionnaire})
	f.metareview = store.AddQuestionnaire(models.Questionnaire{Name: "Metareview rubric", Type: models.MetareviewQuestionnaire})
	f.authorFeedback = store.AddQuestionnaire(models.Questionnaire{Name: "Feedback rubric", Type: models.AuthorFeedbackQuestionnaire})
	f.teammate = store.AddQuestionnaire(models.Questionnaire{Name: "Teammate rubric", Type: models.TeammateReviewQuestionnaire})
	f.bookmark = store.AddQuestionnaire(models.Questionnaire{Name: "Bookmark rubric", Type: models.BookmarkRatingQuestionnaire})
	return f
}

func utcTime(year int, month time.Month, day, hour int) *time.Time {
	t := time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
	return &t
}

// seedAssignment stores a course assignment with a submission, review and metareview deadline
// and the review and feedback rubrics attached.
func (f *fixture) seedAssignment(t *testing.T, name string) *AssignmentBundle {
	t.Helper()
	bundle := &AssignmentBundle{
		Assignment: models.Assignment{
			Name:            name,
			CourseID:        models.IntPtr(f.course.ID),
			InstructorID:    f.instructor.ID,
			DirectoryPath:   "program1",
			MaxTeamSize:     1,
			NumReviewRounds: 2,
		},
		DueDates: []models.DueDate{
			{DeadlineTypeID: models.DeadlineTypeSubmission, DueAt: utcTime(2030, 1, 20, 4), Round: 1, Threshold: 1, Type: "AssignmentDueDate"},
			{DeadlineTypeID: models.DeadlineTypeReview, DueAt: utcTime(2030, 1, 27, 4), Round: 1, Threshold: 1, Type: "AssignmentDueDate"},
			{DeadlineTypeID: models.DeadlineTypeMetareview, DueAt: utcTime(2030, 2, 3, 4), Round: 1, Threshold: 1, Type: "AssignmentDueDate"},
		},
		AssignmentQuestionnaires: []models.AssignmentQuestionnaire{
			{QuestionnaireID: models.IntPtr(f.review.ID), UserID: f.instructor.ID, QuestionnaireWeight: 100, NotificationLimit: 15},
			{QuestionnaireID: models.IntPtr(f.authorFeedback.ID), UserID: f.instructor.ID, NotificationLimit: 15},
		},
		Topics: []models.SignUpTopic{{TopicName: "Refactoring", MaxChoosers: 2}},
	}
	if err := f.store.CreateAssignment(context.Background(), bundle); err != nil {
		t.Fatalf("failed to seed assignment: %v", err)
	}
	return bundle
}

// formFor rebuilds the edit form from what is stored, the way the edit page posts it back.
func (f *fixture) formFor(t *testing.T, assignmentID int) AssignmentForm {
	t.Helper()
	ctx := context.Background()
	a, err := f.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		t.Fatalf("failed to load assignment: %v", err)
	}
	form := AssignmentForm{
		Assignment: AssignmentAttributes{
			ID:              a.ID,
			Name:            a.Name,
			CourseID:        a.CourseID,
			InstructorID:    a.InstructorID,
			DirectoryPath:   a.DirectoryPath,
			MaxTeamSize:     a.MaxTeamSize,
			NumReviewRounds: a.NumReviewRounds,
			ReviewerIsTeam:  &a.ReviewerIsTeam,
		},
	}
	dueDates, _ := f.store.ListDueDates(ctx, assignmentID)
	for _, dd := range dueDates {
		row := DueDateAttributes{
			ID:             dd.ID,
			DeadlineTypeID: dd.DeadlineTypeID,
			Round:          dd.Round,
			Threshold:      dd.Threshold,
		}
		if dd.DueAt != nil {
			row.DueAt = dd.DueAt.UTC().Format(time.RFC3339)
		}
		form.DueDates = append(form.DueDates, row)
	}
	aqs, _ := f.store.ListAssignmentQuestionnaires(ctx, assignmentID)
	for _, aq := range aqs {
		form.AssignmentQuestionnaires = append(form.AssignmentQuestionnaires, AssignmentQuestionnaireAttributes{
			ID:                  aq.ID,
			QuestionnaireID:     aq.QuestionnaireID,
			QuestionnaireWeight: aq.QuestionnaireWeight,
			NotificationLimit:   aq.NotificationLimit,
		})
	}
	return form
}

func countDeadlines(dueDates []models.DueDate, kind models.DeadlineType) int {
	n := 0
	for _, dd := range dueDates {
		if dd.DeadlineTypeID == kind {
			n++
		}
	}
	return n
}
