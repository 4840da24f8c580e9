package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Laisky/multilingual-news/internal/web/news/dto"
)

func (c *Controller) ingestScraped(ctx *gin.Context) {
	var in dto.ScrapedInput
	if !bindJSON(ctx, &in) {
		return
	}

	doc, created, err := c.svc.Scraped.Ingest(ctx, &in)
	if err != nil {
		abortErr(ctx, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	ctx.JSON(status, doc)
}

type scrapedListQuery struct {
	pageQuery
	Status string `form:"status" binding:"omitempty,oneof=new imported rejected"`
	Source string `form:"source" binding:"max=200"`
}

func (c *Controller) listScraped(ctx *gin.Context) {
	var q scrapedListQuery
	if !bindQuery(ctx, &q) {
		return
	}

	page, err := c.svc.Scraped.List(ctx, q.Status, q.Source, q.Page, q.Limit)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, page)
}

func (c *Controller) getScraped(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	doc, err := c.svc.Scraped.Get(ctx, id)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, doc)
}

func (c *Controller) importScraped(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var in dto.ImportScrapedInput
	if !bindJSON(ctx, &in) {
		return
	}

	a, err := c.svc.Scraped.Import(ctx, currentUser(ctx), id, &in)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	c.writeArticle(ctx, http.StatusCreated, a)
}

func (c *Controller) rejectScraped(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	doc, err := c.svc.Scraped.Reject(ctx, id)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, doc)
}

func (c *Controller) deleteScraped(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.svc.Scraped.Delete(ctx, id); err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
