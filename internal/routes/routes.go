package routes

import (
	"github.com/gin-gonic/gin"

	"accounthub/internal/authz"
	"accounthub/internal/handlers"
	"accounthub/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	verifyHandler *handlers.VerifyHandler,
) *gin.Engine {

	// ---- public
	r.POST("/login", authHandler.Login)
	r.POST("/refresh", authHandler.RefreshToken)
	r.POST("/register", userHandler.Register)
	r.POST("/register/activate", userHandler.Activate)
	r.POST("/verify/send", verifyHandler.Send)
	r.POST("/verify/check", verifyHandler.Check)
	r.POST("/password/reset/request", authHandler.RequestPasswordReset)
	r.POST("/password/reset", authHandler.ResetPassword)

	// ---- protected
	r.Use(middleware.AuthMiddleware())
	r.Use(middleware.ReadOnlyGuard())

	r.POST("/logout", authHandler.Logout)
	r.POST("/password/update/request", authHandler.RequestPasswordUpdate)
	r.POST("/password/update", authHandler.UpdatePassword)

	// USERS
	users := r.Group("/users")
	{
		users.POST("/contact/request", userHandler.RequestContactChange)
		users.POST("/contact/confirm", userHandler.ConfirmContactChange)
		users.GET("/:id", userHandler.GetUserByID)

		admin := users.Group("", middleware.RequireRoles(authz.RoleSupport, authz.RoleAudit, authz.RoleAdmin))
		{
			admin.GET("/", userHandler.ListUsers)
			admin.GET("/count", userHandler.GetUserCount)
		}
		users.PUT("/:id", middleware.RequireRoles(authz.RoleAdmin), userHandler.UpdateUser)
		users.DELETE("/:id", middleware.RequireRoles(authz.RoleAdmin), userHandler.DeleteUser)
	}

	// VERIFICATIONS (support/admin tooling)
	verify := r.Group("/verify", middleware.RequireRoles(authz.RoleSupport, authz.RoleAudit, authz.RoleAdmin))
	{
		verify.GET("/status", verifyHandler.Status)
		verify.DELETE("", verifyHandler.Delete)
	}

	return r
}
