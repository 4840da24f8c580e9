package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Laisky/multilingual-news/internal/web/news/dto"
	"github.com/Laisky/multilingual-news/internal/web/news/model"
	"github.com/Laisky/multilingual-news/internal/web/news/service"
)

type pageQuery struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1"`
}

// nearQuery a point lookup, lat and lng are pointers since 0 is a valid coordinate
type nearQuery struct {
	Lng         *float64 `form:"lng" binding:"required"`
	Lat         *float64 `form:"lat" binding:"required"`
	MaxDistance float64  `form:"maxDistance" binding:"omitempty,min=0"`
	Radius      float64  `form:"radius" binding:"omitempty,min=0"`
	Limit       int      `form:"limit" binding:"omitempty,min=1"`
}

func (q nearQuery) near() service.Near {
	n := service.Near{Lng: *q.Lng, Lat: *q.Lat, MaxDistance: q.MaxDistance, Limit: q.Limit}
	if n.MaxDistance == 0 {
		n.MaxDistance = q.Radius
	}
	return n
}

// localizer resolve the response language from `?lang=` or Accept-Language
func (c *Controller) localizer(ctx *gin.Context) dto.Localizer {
	l := dto.Localizer{
		Lang:    c.svc.Languages.Negotiate(ctx, ctx.Query("lang"), ctx.GetHeader("Accept-Language")),
		Default: c.svc.Languages.DefaultCode(ctx),
	}
	ctx.Header("Content-Language", l.Lang)
	return l
}

// wantRaw `?raw=true` asks for every language instead of a localized view
func wantRaw(ctx *gin.Context) bool {
	raw, _ := strconv.ParseBool(ctx.Query("raw"))
	return raw
}

// activeOnly public listings hide inactive entries, admins may ask for them with `?active=false`
func activeOnly(ctx *gin.Context) bool {
	if u := currentUser(ctx); u.IsAdmin() {
		if active, err := strconv.ParseBool(ctx.Query("active")); err == nil {
			return active
		}
	}
	return true
}

// pathID parse the object id path parameter name
func pathID(ctx *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := service.ParseID(name, ctx.Param(name))
	if err != nil {
		abortErr(ctx, err)
		return id, false
	}
	return id, true
}

func mapSlice[T, R any](items []T, fn func(T) R) []R {
	out := make([]R, 0, len(items))
	for _, it := range items {
		out = append(out, fn(it))
	}
	return out
}

// articleViews localize articles with their authors and categories
func (c *Controller) articleViews(ctx *gin.Context, articles []*model.Article) ([]*dto.ArticleView, error) {
	refs, err := c.svc.Articles.Refs(ctx, articles)
	if err != nil {
		return nil, err
	}

	l := c.localizer(ctx)
	return mapSlice(articles, func(a *model.Article) *dto.ArticleView {
		return l.Article(a, refs, false)
	}), nil
}

// writeArticles respond with a localized or raw article list
func (c *Controller) writeArticles(ctx *gin.Context, status int, articles []*model.Article) {
	if wantRaw(ctx) {
		ctx.JSON(status, articles)
		return
	}

	views, err := c.articleViews(ctx, articles)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.JSON(status, views)
}

// writeArticlePage respond with one localized or raw page of articles
func (c *Controller) writeArticlePage(ctx *gin.Context, page *dto.Paged[*model.Article]) {
	if wantRaw(ctx) {
		ctx.JSON(http.StatusOK, page)
		return
	}

	views, err := c.articleViews(ctx, page.Items)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, &dto.Paged[*dto.ArticleView]{
		Items: views,
		Total: page.Total,
		Page:  page.Page,
		Limit: page.Limit,
		Pages: page.Pages,
	})
}

// writeArticle respond with one localized or raw article including its body
func (c *Controller) writeArticle(ctx *gin.Context, status int, a *model.Article) {
	if wantRaw(ctx) {
		ctx.JSON(status, a)
		return
	}

	refs, err := c.svc.Articles.Refs(ctx, []*model.Article{a})
	if err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.JSON(status, c.localizer(ctx).Article(a, refs, true))
}
