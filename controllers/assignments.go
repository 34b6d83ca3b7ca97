package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"assignment-management-api/services"

	"github.com/gin-gonic/gin"
)

// AssignmentController serves the assignment edit workflow.
type AssignmentController struct {
	svc *services.AssignmentService
}

func NewAssignmentController(svc *services.AssignmentService) *AssignmentController {
	return &AssignmentController{svc: svc}
}

const assignmentsLog = "assignments"

// authorizeManage answers 403 unless the user may manage the assignment.
func (ac *AssignmentController) authorizeManage(c *gin.Context, id int) bool {
	user, ok := requireUser(c)
	if !ok {
		return false
	}
	allowed, err := ac.svc.CanManage(c.Request.Context(), user, id)
	if err != nil {
		respondError(c, err)
		return false
	}
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "Insufficient permissions"})
		return false
	}
	return true
}

// GET /api/v1/assignments/new
func (ac *AssignmentController) New(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":                 true,
		"assignment_form":         services.NewAssignmentForm(user),
		"num_submissions_round":   0,
		"num_reviews_round":       0,
		"default_reminder_offset": 1,
	})
}

type createAssignmentRequest struct {
	services.AssignmentForm
	Button *string `json:"button"`
}

// POST /api/v1/assignments
// The form is only saved when "button" is present, in the body or the query string.
func (ac *AssignmentController) Create(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req createAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}
	_, inQuery := c.GetQuery("button")
	save := req.Button != nil || inQuery

	res, err := ac.svc.Create(c.Request.Context(), user, req.AssignmentForm, save)
	if err != nil {
		logEvent(c, assignmentsLog, "ERROR", "create failed: "+err.Error())
		respondError(c, err)
		return
	}

	if !save {
		c.JSON(http.StatusOK, gin.H{"success": true, "assignment_form": res.Form})
		return
	}
	if !res.Saved {
		body := flashResponse(false, res.Flash, "")
		body["assignment_form"] = res.Form
		body["errors"] = res.Errors
		if res.AssignmentID > 0 {
			body["assignment_id"] = res.AssignmentID
			body["redirect_to"] = editPath(res.AssignmentID)
		}
		c.JSON(http.StatusUnprocessableEntity, body)
		return
	}

	logEvent(c, assignmentsLog, "INFO", fmt.Sprintf("Assignment created: %d", res.AssignmentID))
	body := flashResponse(true, res.Flash, editPath(res.AssignmentID))
	body["assignment_id"] = res.AssignmentID
	c.JSON(http.StatusCreated, body)
}

// GET /api/v1/assignments/:id/edit
func (ac *AssignmentController) Edit(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok || !ac.authorizeManage(c, id) {
		return
	}
	user, _ := requireUser(c)

	view, err := ac.svc.EditView(c.Request.Context(), user, id)
	if err != nil {
		respondError(c, err)
		return
	}

	if view.TimezoneMissing {
		logEvent(c, assignmentsLog, "ERROR", "Timezone not specified")
	}
	if len(view.MissingRubrics) > 0 {
		logEvent(c, assignmentsLog, "ERROR", "Rubrics missing for "+view.Assignment.Name)
	}
	if view.MissingDirectory {
		logEvent(c, assignmentsLog, "ERROR", "Submission directory not specified")
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "flash": view.Flash, "data": view})
}

// PUT /api/v1/assignments/:id
func (ac *AssignmentController) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok || !ac.authorizeManage(c, id) {
		return
	}
	user, _ := requireUser(c)

	var req services.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}

	res, err := ac.svc.Update(c.Request.Context(), user, id, req)
	if err != nil {
		logEvent(c, assignmentsLog, "ERROR", "update failed: "+err.Error())
		respondError(c, err)
		return
	}

	redirect := editPath(id)
	if res.CourseOnly && res.Saved {
		redirect = treeDisplayPath
	}
	if !res.Saved {
		logEvent(c, assignmentsLog, "ERROR", res.Flash.Error)
		body := flashResponse(false, res.Flash, redirect)
		body["timezone"] = res.Timezone
		c.JSON(http.StatusUnprocessableEntity, body)
		return
	}

	logEvent(c, assignmentsLog, "INFO", "The assignment was saved")
	body := flashResponse(true, res.Flash, redirect)
	body["timezone"] = res.Timezone
	c.JSON(http.StatusOK, body)
}

// GET /api/v1/assignments/:id
func (ac *AssignmentController) Show(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	assignment, err := ac.svc.Show(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": assignment})
}

// GET /api/v1/assignments/:id/path
func (ac *AssignmentController) Path(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "path": ac.svc.Path(c.Request.Context(), id)})
}

// POST /api/v1/assignments/:id/copy
func (ac *AssignmentController) Copy(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	user, ok := requireUser(c)
	if !ok {
		return
	}

	res, err := ac.svc.Copy(c.Request.Context(), user, id)
	if err != nil {
		if services.IsNotFound(err) {
			respondError(c, err)
			return
		}
		logEvent(c, assignmentsLog, "ERROR", "copy failed: "+err.Error())
		c.JSON(http.StatusUnprocessableEntity, flashResponse(false, services.Flash{Error: services.MsgCopyFailed}, treeDisplayPath))
		return
	}

	logEvent(c, assignmentsLog, "INFO", fmt.Sprintf("Copied assignment %d to %d", id, res.AssignmentID))
	body := flashResponse(true, res.Flash, editPath(res.AssignmentID))
	body["assignment_id"] = res.AssignmentID
	body["directory_collision"] = res.DirectoryCollision
	c.JSON(http.StatusCreated, body)
}

// DELETE /api/v1/assignments/:id?force=1
func (ac *AssignmentController) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	user, ok := requireUser(c)
	if !ok {
		return
	}

	err := ac.svc.Delete(c.Request.Context(), user, id, queryFlag(c, "force"))
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case services.IsNotFound(err):
			status = http.StatusNotFound
		case errors.Is(err, services.ErrNotAuthorizedToDelete):
			status = http.StatusForbidden
		case errors.Is(err, services.ErrResponsesExist):
			status = http.StatusConflict
		}
		logEvent(c, assignmentsLog, "ERROR", err.Error())
		c.JSON(status, flashResponse(false, services.Flash{Error: err.Error()}, treeDisplayPath))
		return
	}

	logEvent(c, assignmentsLog, "INFO", fmt.Sprintf("Assignment %d deleted", id))
	c.JSON(http.StatusOK, flashResponse(true, services.Flash{Success: services.MsgAssignmentDeleted}, treeDisplayPath))
}

// GET /api/v1/assignments/:id/list_submissions
func (ac *AssignmentController) ListSubmissions(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok || !ac.authorizeManage(c, id) {
		return
	}
	assignment, teams, err := ac.svc.ListSubmissions(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "assignment": assignment, "teams": teams, "count": len(teams)})
}

// GET /api/v1/assignments/:id/associate_assignment_with_course
func (ac *AssignmentController) AssociateAssignmentWithCourse(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	user, ok := requireUser(c)
	if !ok {
		return
	}
	assignment, courses, err := ac.svc.CoursesForAssociation(c.Request.Context(), user, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "assignment": assignment, "courses": courses})
}

// POST /api/v1/assignments/:id/remove_assignment_from_course
func (ac *AssignmentController) RemoveAssignmentFromCourse(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := ac.svc.RemoveFromCourse(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	logEvent(c, assignmentsLog, "INFO", fmt.Sprintf("Assignment %d removed from its course", id))
	c.JSON(http.StatusOK, flashResponse(true, services.Flash{}, treeDisplayPath))
}

// GET /api/v1/assignments/:id/delayed_mailer
func (ac *AssignmentController) DelayedMailer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	view, err := ac.svc.DelayedMailer(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": view})
}

// DELETE /api/v1/assignments/:id/delayed_mailer/:job_id
func (ac *AssignmentController) DeleteDelayedMailer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	jobID := strings.TrimSpace(c.Param("job_id"))
	if jobID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "missing job_id"})
		return
	}

	if err := ac.svc.DeleteDelayedMailerJob(c.Request.Context(), jobID); err != nil {
		if errors.Is(err, services.ErrMailJobNotFound) {
			c.JSON(http.StatusNotFound, flashResponse(false, services.Flash{Error: err.Error()}, delayedMailerPath(id)))
			return
		}
		respondError(c, err)
		return
	}
	logEvent(c, assignmentsLog, "INFO", "Deleted delayed mail job "+jobID)
	c.JSON(http.StatusOK, flashResponse(true, services.Flash{}, delayedMailerPath(id)))
}
