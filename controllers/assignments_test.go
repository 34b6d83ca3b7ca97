package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"assignment-management-api/middleware"
	"assignment-management-api/models"
	"assignment-management-api/services"
	"assignment-management-api/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	store      *services.MemoryStore
	svc        *services.AssignmentService
	instructor models.User
	ta         models.User
	student    models.User
	course     models.Course
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := services.NewMemoryStore()
	env := &testEnv{store: store, svc: services.NewAssignmentService(store, services.NewMemoryMailQueue())}

	hash, err := utils.HashPassword("password123")
	require.NoError(t, err)
	env.instructor = store.AddUser(models.User{
		Name: "instructor6", Email: "instructor6@example.edu", RoleID: models.RoleInstructor,
		CryptedPassword: hash, TimezonePref: models.StringPtr("America/New_York"),
	})
	env.ta = store.AddUser(models.User{Name: "ta2", Email: "ta2@example.edu", RoleID: models.RoleTeachingAssistant})
	env.student = store.AddUser(models.User{Name: "student1", Email: "student1@example.edu", RoleID: models.RoleStudent})
	env.course = store.AddCourse(models.Course{Name: "CSC 517", InstructorID: env.instructor.ID})
	return env
}

// router mounts the assignment routes with user already authenticated.
func (env *testEnv) router(user models.User) *gin.Engine {
	ac := NewAssignmentController(env.svc)
	r := gin.New()
	a := r.Group("/api/v1/assignments")
	a.Use(func(c *gin.Context) {
		middleware.SetCurrentUser(c, user)
		c.Next()
	})
	a.POST("", ac.Create)
	a.GET("/:id", ac.Show)
	a.GET("/:id/edit", ac.Edit)
	a.PUT("/:id", ac.Update)
	a.DELETE("/:id", ac.Delete)
	a.DELETE("/:id/delayed_mailer/:job_id", ac.DeleteDelayedMailer)
	return r
}

func (env *testEnv) seed(t *testing.T, name string) int {
	t.Helper()
	due := time.Date(2030, 3, 1, 4, 0, 0, 0, time.UTC)
	bundle := &services.AssignmentBundle{
		Assignment: models.Assignment{
			Name: name, CourseID: models.IntPtr(env.course.ID), InstructorID: env.instructor.ID,
			DirectoryPath: "program1", MaxTeamSize: 1, NumReviewRounds: 1,
		},
		DueDates: []models.DueDate{{DeadlineTypeID: models.DeadlineTypeSubmission, DueAt: &due, Round: 1, Threshold: 1}},
	}
	require.NoError(t, env.store.CreateAssignment(context.Background(), bundle))
	return bundle.Assignment.ID
}

func do(r *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func TestCreateAssignment(t *testing.T) {
	env := setup(t)
	r := env.router(env.instructor)

	form := map[string]any{
		"assignment": map[string]any{"name": "Quiz 1", "course_id": env.course.ID},
		"due_date": []map[string]any{
			{"deadline_type_id": 1, "due_at": "2030-04-01 23:59", "round": 1},
		},
	}

	// Without the button the form is only echoed back.
	rec, body := do(r, http.MethodPost, "/api/v1/assignments", form)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, body["assignment_id"])

	rec, body = do(r, http.MethodPost, "/api/v1/assignments?button=1", form)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := int(body["assignment_id"].(float64))
	assert.Equal(t, fmt.Sprintf("/api/v1/assignments/%d/edit", id), body["redirect_to"])
	flash := body["flash"].(map[string]any)
	assert.Equal(t, `Assignment "Quiz 1" has been created successfully. `, flash["success"])

	saved, err := env.store.GetAssignment(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultDirectoryPath(id), saved.DirectoryPath)

	// Same name in the same course is rejected.
	form["button"] = "Create"
	rec, body = do(r, http.MethodPost, "/api/v1/assignments", form)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, services.MsgCreateFailed, body["flash"].(map[string]any)["error"])
}

func TestEditRequiresCourseAccess(t *testing.T) {
	env := setup(t)
	id := env.seed(t, "Program 1")

	rec, _ := do(env.router(env.ta), http.MethodGet, fmt.Sprintf("/api/v1/assignments/%d/edit", id), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, body := do(env.router(env.instructor), http.MethodGet, fmt.Sprintf("/api/v1/assignments/%d/edit", id), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, false, data["timezone_missing"])
	assert.Len(t, data["due_dates"], 1)
}

func TestUpdateRejectsFewerRoundsOnceReviewed(t *testing.T) {
	env := setup(t)
	id := env.seed(t, "Program 1")
	ctx := context.Background()

	a, err := env.store.GetAssignment(ctx, id)
	require.NoError(t, err)
	a.NumReviewRounds = 2
	require.NoError(t, env.store.SaveAssignment(ctx, a))
	env.store.AddResponse(id)

	req := map[string]any{
		"assignment_form": map[string]any{
			"assignment": map[string]any{"name": "Program 1", "course_id": env.course.ID, "directory_path": "program1", "rounds_of_reviews": 1},
		},
	}
	rec, body := do(env.router(env.instructor), http.MethodPut, fmt.Sprintf("/api/v1/assignments/%d", id), req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, services.ErrReviewRoundsReduced.Error(), body["flash"].(map[string]any)["error"])
	assert.Equal(t, fmt.Sprintf("/api/v1/assignments/%d/edit", id), body["redirect_to"])

	// Course-only saves go back to the tree display.
	rec, body = do(env.router(env.instructor), http.MethodPut, fmt.Sprintf("/api/v1/assignments/%d", id), map[string]any{"course_id": nil})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, treeDisplayPath, body["redirect_to"])
}

func TestDeleteAssignment(t *testing.T) {
	env := setup(t)
	id := env.seed(t, "Program 1")
	env.store.AddResponse(id)
	path := fmt.Sprintf("/api/v1/assignments/%d", id)

	rec, _ := do(env.router(env.ta), http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, body := do(env.router(env.instructor), http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "There is at least one review response that exists for Program 1.", body["flash"].(map[string]any)["error"])

	rec, body = do(env.router(env.instructor), http.MethodDelete, path+"?force=1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, treeDisplayPath, body["redirect_to"])

	rec, _ = do(env.router(env.instructor), http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBadIDAndUnknownJob(t *testing.T) {
	env := setup(t)
	id := env.seed(t, "Program 1")
	r := env.router(env.instructor)

	rec, _ := do(r, http.MethodGet, "/api/v1/assignments/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body := do(r, http.MethodDelete, fmt.Sprintf("/api/v1/assignments/%d/delayed_mailer/nope", id), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, fmt.Sprintf("/api/v1/assignments/%d/delayed_mailer", id), body["redirect_to"])
}
