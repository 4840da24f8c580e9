package controller

import (
	"github.com/gin-gonic/gin"

	"github.com/Laisky/multilingual-news/internal/web/news/model"
)

// Register mount every news route on api, normally the `/api` group
func (c *Controller) Register(api gin.IRouter) {
	auth := c.requireAuth
	admin := requireRole(model.RoleAdmin)
	writer := requireRole(model.RoleReporter, model.RoleAdmin)

	languages := api.Group("/languages")
	{
		languages.GET("", c.activeLanguages)
		languages.GET("/default", c.defaultLanguage)
		languages.GET("/all", auth, admin, c.allLanguages)
		languages.POST("", auth, admin, c.createLanguage)
		languages.PUT("/reorder", auth, admin, c.reorderLanguages)
		languages.PUT("/:id", auth, admin, c.updateLanguage)
		languages.PATCH("/:id/default", auth, admin, c.makeDefaultLanguage)
		languages.DELETE("/:id", auth, admin, c.deleteLanguage)
	}

	authGroup := api.Group("/auth")
	{
		limited := rateLimit(c.authLimiter)
		authGroup.POST("/register", limited, c.register)
		authGroup.POST("/login", limited, c.login)
		authGroup.POST("/logout", c.logout)
		authGroup.GET("/me", auth, c.me)
		authGroup.PUT("/password", auth, c.changePassword)
	}

	users := api.Group("/users", auth)
	{
		users.PUT("/me", c.updateProfile)
		users.PUT("/me/preferences", c.updatePreferences)
		users.GET("/reporters", admin, c.reporters)
		users.GET("", admin, c.listUsers)
		users.POST("", admin, c.createUser)
		users.GET("/:id", admin, c.getUser)
		users.PUT("/:id", admin, c.updateUser)
		users.DELETE("/:id", admin, c.deleteUser)
	}

	categories := api.Group("/categories", c.optionalAuth)
	{
		categories.GET("", c.listCategories)
		categories.GET("/tree", c.categoryTree)
		categories.GET("/:idOrSlug", c.getCategory)
		categories.POST("", auth, admin, c.createCategory)
		categories.PUT("/:id", auth, admin, c.updateCategory)
		categories.DELETE("/:id", auth, admin, c.deleteCategory)
	}

	locations := api.Group("/locations", c.optionalAuth)
	{
		locations.GET("/cities", c.listCities)
		locations.GET("/cities/nearby", c.nearbyCities)
		locations.GET("/cities/:id", c.getCity)
		locations.GET("/cities/:id/areas", c.cityAreas)
		locations.POST("/cities", auth, admin, c.createCity)
		locations.PUT("/cities/:id", auth, admin, c.updateCity)
		locations.DELETE("/cities/:id", auth, admin, c.deleteCity)

		locations.GET("/areas/nearby", c.nearbyAreas)
		locations.GET("/areas/locate", c.locateArea)
		locations.GET("/areas/:id", c.getArea)
		locations.POST("/areas", auth, admin, c.createArea)
		locations.PUT("/areas/:id", auth, admin, c.updateArea)
		locations.DELETE("/areas/:id", auth, admin, c.deleteArea)
	}

	articles := api.Group("/articles", c.optionalAuth)
	{
		articles.GET("", c.feed)
		articles.GET("/nearby", c.nearbyArticles)
		articles.GET("/mine", auth, writer, c.myArticles)
		articles.GET("/admin", auth, admin, c.adminArticles)
		articles.GET("/:id", c.getArticle)
		articles.GET("/:id/related", c.relatedArticles)
		articles.POST("", auth, writer, c.createArticle)
		articles.PUT("/:id", auth, writer, c.updateArticle)
		articles.DELETE("/:id", auth, writer, c.deleteArticle)

		articles.POST("/:id/submit", auth, writer, c.transition(model.ActionSubmit))
		articles.POST("/:id/approve", auth, admin, c.transition(model.ActionApprove))
		articles.POST("/:id/reject", auth, admin, c.transition(model.ActionReject))
		articles.POST("/:id/archive", auth, admin, c.transition(model.ActionArchive))
		articles.POST("/:id/restore", auth, writer, c.transition(model.ActionRestore))

		articles.GET("/:id/comments", c.articleComments)
		articles.POST("/:id/comments", auth, c.createComment)
	}

	engagement := api.Group("/engagement", c.optionalAuth, c.session)
	{
		engagement.POST("/articles/:id/view", c.viewArticle)
		engagement.POST("/articles/:id/like", c.toggleReaction(model.EngagementLike))
		engagement.POST("/articles/:id/dislike", c.toggleReaction(model.EngagementDislike))
		engagement.POST("/articles/:id/bookmark", auth, c.toggleReaction(model.EngagementBookmark))
		engagement.POST("/articles/:id/share", c.shareArticle)
		engagement.GET("/articles/:id/status", c.engagementStatus)
		engagement.GET("/bookmarks", auth, c.bookmarks)
		engagement.GET("/stats", auth, admin, c.engagementStats)
	}

	comments := api.Group("/comments", auth)
	{
		comments.GET("", admin, c.moderationQueue)
		comments.PUT("/:id", c.editComment)
		comments.DELETE("/:id", c.deleteComment)
		comments.POST("/:id/like", c.likeComment)
		comments.PATCH("/:id/status", admin, c.setCommentStatus)
	}

	upload := api.Group("/upload", auth, writer)
	{
		upload.POST("/sas", c.uploadGrant)
		upload.POST("", c.upload)
		upload.DELETE("", admin, c.deleteUpload)
	}

	translate := api.Group("/translate", auth, writer)
	{
		translate.POST("", c.translateFields)
		translate.POST("/tts", c.textToSpeech)
		translate.POST("/articles/:id", c.translateArticle)
		translate.POST("/articles/:id/audio", c.articleAudio)
	}

	scraped := api.Group("/scraped-articles", auth, admin)
	{
		scraped.GET("", c.listScraped)
		scraped.POST("", c.ingestScraped)
		scraped.GET("/:id", c.getScraped)
		scraped.POST("/:id/import", c.importScraped)
		scraped.POST("/:id/reject", c.rejectScraped)
		scraped.DELETE("/:id", c.deleteScraped)
	}
}
