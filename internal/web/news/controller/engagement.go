package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Laisky/multilingual-news/internal/web/news/dto"
	"github.com/Laisky/multilingual-news/internal/web/news/model"
)

func (c *Controller) viewArticle(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	res, err := c.svc.Engagements.View(ctx, id, actor(ctx))
	if err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, res)
}

// toggleReaction flip like, dislike or bookmark
func (c *Controller) toggleReaction(typ model.EngagementType) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id, ok := pathID(ctx, "id")
		if !ok {
			return
		}

		res, err := c.svc.Engagements.Toggle(ctx, id, typ, actor(ctx))
		if err != nil {
			abortErr(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, res)
	}
}

func (c *Controller) shareArticle(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var in dto.ShareInput
	if !bindOptionalJSON(ctx, &in) {
		return
	}

	e, err := c.svc.Engagements.Share(ctx, id, actor(ctx), in.Platform)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, e)
}

func (c *Controller) engagementStatus(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	status, err := c.svc.Engagements.Status(ctx, id, actor(ctx))
	if err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, status)
}

func (c *Controller) bookmarks(ctx *gin.Context) {
	var q pageQuery
	if !bindQuery(ctx, &q) {
		return
	}

	page, err := c.svc.Engagements.Bookmarks(ctx, currentUser(ctx).ID, q.Page, q.Limit)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	c.writeArticlePage(ctx, page)
}

func (c *Controller) engagementStats(ctx *gin.Context) {
	stats, err := c.svc.Engagements.Stats(ctx)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, stats)
}
