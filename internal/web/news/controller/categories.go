package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Laisky/multilingual-news/internal/web/news/dto"
	"github.com/Laisky/multilingual-news/internal/web/news/model"
)

func (c *Controller) listCategories(ctx *gin.Context) {
	categories, err := c.svc.Categories.List(ctx, ctx.Query("parent"), activeOnly(ctx))
	if err != nil {
		abortErr(ctx, err)
		return
	}

	if wantRaw(ctx) {
		ctx.JSON(http.StatusOK, categories)
		return
	}
	l := c.localizer(ctx)
	ctx.JSON(http.StatusOK, mapSlice(categories, func(cat *model.Category) *dto.CategoryView {
		return l.Category(cat, false)
	}))
}

func (c *Controller) categoryTree(ctx *gin.Context) {
	nodes, err := c.svc.Categories.Tree(ctx, activeOnly(ctx))
	if err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, c.localizer(ctx).Tree(nodes))
}

func (c *Controller) getCategory(ctx *gin.Context) {
	cat, err := c.svc.Categories.Get(ctx, ctx.Param("idOrSlug"))
	if err != nil {
		abortErr(ctx, err)
		return
	}

	c.writeCategory(ctx, http.StatusOK, cat)
}

func (c *Controller) writeCategory(ctx *gin.Context, status int, cat *model.Category) {
	if wantRaw(ctx) {
		ctx.JSON(status, cat)
		return
	}
	ctx.JSON(status, c.localizer(ctx).Category(cat, true))
}

func (c *Controller) createCategory(ctx *gin.Context) {
	var in dto.CategoryInput
	if !bindJSON(ctx, &in) {
		return
	}

	cat, err := c.svc.Categories.Create(ctx, &in)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, cat)
}

func (c *Controller) updateCategory(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var in dto.CategoryInput
	if !bindJSON(ctx, &in) {
		return
	}

	cat, err := c.svc.Categories.Update(ctx, id, &in)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, cat)
}

func (c *Controller) deleteCategory(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.svc.Categories.Delete(ctx, id); err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
