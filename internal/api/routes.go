package api

import (
	"net/http"

	"training-passport/internal/domain"
	"training-passport/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	userService service.UserService,
	trainingService service.TrainingService,
	assignmentService service.AssignmentService,
) {
	authHandler := NewAuthHandler(authService)
	userHandler := NewUserHandler(userService)
	trainingHandler := NewTrainingHandler(trainingService)
	assignmentHandler := NewAssignmentHandler(assignmentService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userIDStr, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			role, _ := getUserRoleFromContext(c)
			c.JSON(http.StatusOK, gin.H{"userId": userIDStr, "role": role})
		})

		protected.POST("/auth/change-password", authHandler.ChangePassword)

		// --- Personal dashboard ---
		protected.GET("/my/trainings", assignmentHandler.GetMyTrainings)
		protected.POST("/my/avatar/upload-url", userHandler.RequestAvatarUpload)
		protected.POST("/my/avatar/confirm", userHandler.ConfirmAvatarUpload)

		// Every user can see the training catalog and flip completion of
		// their own assignments from the dashboard.
		protected.GET("/trainings", trainingHandler.ListTrainings)
		protected.GET("/trainings/:trainingId", trainingHandler.GetTraining)
		protected.PATCH("/assignments/:assignmentId/status", assignmentHandler.SetStatus)

		// --- Admin routes ---
		adminGroup := protected.Group("/admin")
		adminGroup.Use(RoleMiddleware(domain.RoleAdmin))
		{
			// User management
			adminGroup.POST("/users", userHandler.CreateUser)
			adminGroup.GET("/users", userHandler.ListUsers)
			adminGroup.PUT("/users/:userId", userHandler.UpdateUser)
			adminGroup.POST("/users/:userId/promote", userHandler.PromoteUser)
			adminGroup.DELETE("/users/:userId", userHandler.DeleteUser)
			adminGroup.GET("/users/:userId/trainings", assignmentHandler.GetUserTrainings)

			// Training management
			adminGroup.POST("/trainings", trainingHandler.CreateTraining)
			adminGroup.PUT("/trainings/:trainingId", trainingHandler.UpdateTraining)
			adminGroup.DELETE("/trainings/:trainingId", trainingHandler.DeleteTraining)
			adminGroup.GET("/trainings/:trainingId/participants", trainingHandler.GetParticipants)

			// Assignments
			adminGroup.POST("/trainings/:trainingId/assign", assignmentHandler.Assign)
			adminGroup.POST("/trainings/:trainingId/bulk-assign", assignmentHandler.BulkAssign)
			adminGroup.DELETE("/assignments/:assignmentId", assignmentHandler.DeleteAssignment)

			// Reporting
			adminGroup.GET("/reports/completion", assignmentHandler.GetCompletionReport)
		}
	}
}
