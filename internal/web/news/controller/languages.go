package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Laisky/multilingual-news/internal/web/news/dto"
)

func (c *Controller) activeLanguages(ctx *gin.Context) {
	langs, err := c.svc.Languages.Active(ctx)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, langs)
}

func (c *Controller) allLanguages(ctx *gin.Context) {
	langs, err := c.svc.Languages.All(ctx)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, langs)
}

func (c *Controller) defaultLanguage(ctx *gin.Context) {
	lang, err := c.svc.Languages.Default(ctx)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, lang)
}

func (c *Controller) createLanguage(ctx *gin.Context) {
	var in dto.LanguageInput
	if !bindJSON(ctx, &in) {
		return
	}

	lang, err := c.svc.Languages.Create(ctx, &in)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, lang)
}

func (c *Controller) updateLanguage(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var in dto.LanguageInput
	if !bindJSON(ctx, &in) {
		return
	}

	lang, err := c.svc.Languages.Update(ctx, id, &in)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, lang)
}

func (c *Controller) deleteLanguage(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.svc.Languages.Delete(ctx, id); err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (c *Controller) makeDefaultLanguage(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	lang, err := c.svc.Languages.MakeDefault(ctx, id)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, lang)
}

func (c *Controller) reorderLanguages(ctx *gin.Context) {
	var in dto.ReorderInput
	if !bindJSON(ctx, &in) {
		return
	}

	langs, err := c.svc.Languages.Reorder(ctx, in.IDs)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, langs)
}
