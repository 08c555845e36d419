package routes

import (
	"examportal/internal/auth"
	"examportal/internal/handlers"
	"examportal/internal/logger"
	"examportal/internal/middleware"
	"examportal/internal/models"
	"examportal/internal/repositories"
	"examportal/ws"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires all HTTP and WebSocket routes.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	wsHandler *ws.WebSocketHandler,
	issuer *auth.TokenIssuer,
	userRepo repositories.UserRepository,
) {
	requireAuth := middleware.AuthMiddleware(issuer, userRepo)
	requireAdmin := middleware.RequireRole(models.UserRoleAdmin)
	requireVerified := middleware.RequireVerified()

	api := ginRouter.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", appHandlers.Auth.Register)
		authGroup.POST("/login", appHandlers.Auth.Login)
		authGroup.POST("/refresh", appHandlers.Auth.Refresh)
		authGroup.POST("/logout", appHandlers.Auth.Logout)

		protected := authGroup.Group("")
		protected.Use(requireAuth)
		{
			protected.POST("/verify-email", appHandlers.Auth.VerifyEmail)
			protected.POST("/resend-verification", appHandlers.Auth.ResendVerification)
			protected.GET("/profile", appHandlers.Auth.Profile)
			protected.PUT("/profile", appHandlers.Auth.UpdateProfile)
		}
	}

	exams := api.Group("/exams")
	exams.Use(requireAuth)
	{
		// Admin management surface.
		admin := exams.Group("")
		admin.Use(requireAdmin)
		{
			admin.POST("", appHandlers.Exam.Create)
			admin.GET("/all", appHandlers.Exam.ListAll)
			admin.GET("/:id/full", appHandlers.Exam.GetFull)
			admin.PUT("/:id", appHandlers.Exam.Update)
			admin.DELETE("/:id", appHandlers.Exam.Delete)
			admin.POST("/:id/questions", appHandlers.Exam.AddQuestion)
		}

		// Student surface, verified accounts only.
		student := exams.Group("")
		student.Use(requireVerified)
		{
			student.GET("", appHandlers.Exam.ListAvailable)
			student.GET("/:id", appHandlers.Exam.Get)
		}
	}

	questions := api.Group("/questions")
	questions.Use(requireAuth, requireAdmin)
	{
		questions.PUT("/:id", appHandlers.Exam.UpdateQuestion)
		questions.DELETE("/:id", appHandlers.Exam.DeleteQuestion)
	}

	results := api.Group("/results")
	results.Use(requireAuth)
	{
		results.POST("", requireVerified, appHandlers.Result.Record)
		results.GET("/mine", appHandlers.Result.Mine)
		results.GET("/exam/:id", requireAdmin, appHandlers.Result.ByExam)
		results.GET("/exam/:id/cheating-events", requireAdmin, appHandlers.Result.CheatingEvents)
	}

	wsGroup := ginRouter.Group("/ws")
	wsGroup.Use(requireAuth)
	{
		wsGroup.GET("", wsHandler.ServeWS)
	}
	logger.Info("WebSocket route /ws registered")
}
