package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Laisky/multilingual-news/internal/web/news/dto"
)

func (c *Controller) translateFields(ctx *gin.Context) {
	var in dto.TranslateInput
	if !bindJSON(ctx, &in) {
		return
	}

	out, err := c.svc.Translations.Fields(ctx, &in)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"translations": out})
}

func (c *Controller) translateArticle(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var in dto.TranslateArticleInput
	if !bindOptionalJSON(ctx, &in) {
		return
	}

	a, err := c.svc.Translations.Article(ctx, currentUser(ctx), id, &in)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, a)
}

func (c *Controller) textToSpeech(ctx *gin.Context) {
	var in dto.TTSInput
	if !bindJSON(ctx, &in) {
		return
	}

	obj, err := c.svc.Translations.Speech(ctx, &in)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, obj)
}

func (c *Controller) articleAudio(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var in dto.ArticleAudioInput
	if !bindOptionalJSON(ctx, &in) {
		return
	}

	urls, err := c.svc.Translations.ArticleAudio(ctx, currentUser(ctx), id, &in)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"audio": urls})
}
