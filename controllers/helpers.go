package controllers

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"assignment-management-api/middleware"
	"assignment-management-api/models"
	"assignment-management-api/services"

	"github.com/gin-gonic/gin"
)

const treeDisplayPath = "/api/v1/tree_display/list"

func editPath(id int) string {
	return fmt.Sprintf("/api/v1/assignments/%d/edit", id)
}

func delayedMailerPath(id int) string {
	return fmt.Sprintf("/api/v1/assignments/%d/delayed_mailer", id)
}

// logEvent writes one controller event line tagged with the acting user and request path.
func logEvent(c *gin.Context, controller, level, message string) {
	name := "-"
	if user, ok := middleware.CurrentUser(c); ok {
		name = user.Name
	}
	log.Printf("%s [%s] user=%s path=%s %s", level, controller, name, c.Request.URL.Path, message)
}

// paramID reads a positive integer path parameter, answering 400 when it is not one.
func paramID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(c.Param(name)))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// requireUser answers 401 when the request carries no authenticated user.
func requireUser(c *gin.Context) (models.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized"})
		return models.User{}, false
	}
	return user, true
}

// respondError maps a service error to an HTTP status.
func respondError(c *gin.Context, err error) {
	switch {
	case services.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
	}
}

func flashResponse(success bool, flash services.Flash, redirectTo string) gin.H {
	body := gin.H{"success": success, "flash": flash}
	if redirectTo != "" {
		body["redirect_to"] = redirectTo
	}
	return body
}

func queryFlag(c *gin.Context, key string) bool {
	switch strings.ToLower(strings.TrimSpace(c.Query(key))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
