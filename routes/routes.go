package routes

import (
	"net/http"

	"assignment-management-api/controllers"
	"assignment-management-api/middleware"
	"assignment-management-api/services"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, svc *services.AssignmentService) {
	auth := controllers.NewAuthController(svc.Store())
	assignments := controllers.NewAssignmentController(svc)

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			// Authentication
			public.POST("/login", auth.Login)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{
					"status":  "ok",
					"message": "Assignment Management API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(svc.Store()))
		{
			// User profile
			protected.GET("/profile", auth.GetProfile)

			// Assignments: teaching assistants and above
			a := protected.Group("/assignments")
			a.Use(middleware.RequireTAPrivileges())
			{
				a.GET("/new", assignments.New)
				a.POST("", assignments.Create)
				a.GET("/:id", assignments.Show)
				a.GET("/:id/edit", assignments.Edit)
				a.PUT("/:id", assignments.Update)
				a.GET("/:id/path", assignments.Path)
				a.POST("/:id/copy", assignments.Copy)
				a.DELETE("/:id", assignments.Delete)
				a.GET("/:id/list_submissions", assignments.ListSubmissions)
				a.GET("/:id/associate_assignment_with_course", assignments.AssociateAssignmentWithCourse)
				a.POST("/:id/remove_assignment_from_course", assignments.RemoveAssignmentFromCourse)
				a.GET("/:id/delayed_mailer", assignments.DelayedMailer)
				a.DELETE("/:id/delayed_mailer/:job_id", assignments.DeleteDelayedMailer)
			}
		}
	}

	// 404 handler
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Endpoint not found",
			"path":    c.Request.URL.Path,
		})
	})
}
