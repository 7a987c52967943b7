package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"civicsync/config"
	"civicsync/controllers"
	"civicsync/middlewares"
	"civicsync/models"
)

// IssueRoutes sets up the issue routes. Reads and votes need a session;
// lifecycle and field mutations need the admin role.
func IssueRoutes(r *gin.Engine, ic *controllers.IssueController, rdb *redis.Client, cfg *config.Config) {
	issue := r.Group("/api/issue", middlewares.AuthMiddleware())
	{
		issue.POST("/create", middlewares.IssueRateLimiter(rdb, cfg.RateLimitPrefix, cfg.DailyIssueLimit), ic.CreateIssue)
		issue.GET("/board", ic.GetBoard)
		issue.GET("/list", ic.GetAllIssues)
		issue.GET("/export", ic.ExportIssues)
		issue.GET("/insights", ic.GetInsights)
		issue.GET("/recent", ic.RecentIssues)
		issue.GET("/:id", ic.GetIssue)
		issue.POST("/:id/vote", ic.VoteOnIssue)

		admin := issue.Group("", middlewares.RequireRole(string(models.RoleAdmin)))
		{
			admin.POST("/:id/advance", ic.AdvanceStatus)
			admin.POST("/:id/revert", ic.RevertStatus)
			admin.PUT("/:id", ic.UpdateIssue)
			admin.DELETE("/:id", ic.DeleteIssue)
		}
	}
}
