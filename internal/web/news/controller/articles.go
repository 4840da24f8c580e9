package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Laisky/multilingual-news/internal/web/news/dto"
	"github.com/Laisky/multilingual-news/internal/web/news/model"
	"github.com/Laisky/multilingual-news/internal/web/news/service"
)

type articleListQuery struct {
	pageQuery
	Status   string `form:"status"`
	Category string `form:"category" binding:"max=200"`
	City     string `form:"city" binding:"omitempty,objectid"`
	Area     string `form:"area" binding:"omitempty,objectid"`
	Author   string `form:"author" binding:"omitempty,objectid"`
	Tag      string `form:"tag" binding:"max=50"`
	Search   string `form:"q" binding:"max=200"`
	Featured *bool  `form:"featured"`
	Breaking *bool  `form:"breaking"`
	Sort     string `form:"sort" binding:"omitempty,oneof=latest popular updated"`
}

func (q articleListQuery) filter() service.ArticleFilter {
	return service.ArticleFilter{
		Status:   q.Status,
		Category: q.Category,
		City:     q.City,
		Area:     q.Area,
		Author:   q.Author,
		Tag:      q.Tag,
		Search:   q.Search,
		Featured: q.Featured,
		Breaking: q.Breaking,
		Sort:     q.Sort,
		Page:     q.Page,
		Limit:    q.Limit,
	}
}

func (c *Controller) feed(ctx *gin.Context) {
	var q articleListQuery
	if !bindQuery(ctx, &q) {
		return
	}

	page, err := c.svc.Articles.Feed(ctx, q.filter())
	if err != nil {
		abortErr(ctx, err)
		return
	}
	c.writeArticlePage(ctx, page)
}

func (c *Controller) myArticles(ctx *gin.Context) {
	var q articleListQuery
	if !bindQuery(ctx, &q) {
		return
	}

	page, err := c.svc.Articles.Mine(ctx, currentUser(ctx), q.filter())
	if err != nil {
		abortErr(ctx, err)
		return
	}
	c.writeArticlePage(ctx, page)
}

func (c *Controller) adminArticles(ctx *gin.Context) {
	var q articleListQuery
	if !bindQuery(ctx, &q) {
		return
	}

	page, err := c.svc.Articles.Admin(ctx, q.filter())
	if err != nil {
		abortErr(ctx, err)
		return
	}
	c.writeArticlePage(ctx, page)
}

func (c *Controller) nearbyArticles(ctx *gin.Context) {
	var q nearQuery
	if !bindQuery(ctx, &q) {
		return
	}

	articles, err := c.svc.Articles.Nearby(ctx, q.near())
	if err != nil {
		abortErr(ctx, err)
		return
	}
	c.writeArticles(ctx, http.StatusOK, articles)
}

func (c *Controller) getArticle(ctx *gin.Context) {
	a, err := c.svc.Articles.Get(ctx, ctx.Param("id"), currentUser(ctx))
	if err != nil {
		abortErr(ctx, err)
		return
	}
	c.writeArticle(ctx, http.StatusOK, a)
}

func (c *Controller) relatedArticles(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	articles, err := c.svc.Articles.Related(ctx, id)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	c.writeArticles(ctx, http.StatusOK, articles)
}

func (c *Controller) createArticle(ctx *gin.Context) {
	var in dto.ArticleInput
	if !bindJSON(ctx, &in) {
		return
	}

	a, err := c.svc.Articles.Create(ctx, currentUser(ctx), &in)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	c.writeArticle(ctx, http.StatusCreated, a)
}

func (c *Controller) updateArticle(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var in dto.ArticleInput
	if !bindJSON(ctx, &in) {
		return
	}

	a, err := c.svc.Articles.Update(ctx, currentUser(ctx), id, &in)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	c.writeArticle(ctx, http.StatusOK, a)
}

func (c *Controller) deleteArticle(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.svc.Articles.Delete(ctx, currentUser(ctx), id); err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// transition run one workflow action, reject carries a reviewer note
func (c *Controller) transition(action model.WorkflowAction) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id, ok := pathID(ctx, "id")
		if !ok {
			return
		}
		var in dto.ReviewInput
		if !bindOptionalJSON(ctx, &in) {
			return
		}

		a, err := c.svc.Articles.Transition(ctx, currentUser(ctx), id, action, in.Note)
		if err != nil {
			abortErr(ctx, err)
			return
		}
		c.writeArticle(ctx, http.StatusOK, a)
	}
}
