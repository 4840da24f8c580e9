package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Laisky/multilingual-news/internal/web/news/dto"
	"github.com/Laisky/multilingual-news/internal/web/news/model"
)

// writeComments respond with comments and their replies, authors resolved in one batch
func (c *Controller) writeComments(ctx *gin.Context, page *dto.Paged[*model.Comment]) {
	authors, err := c.svc.Comments.Authors(ctx, page.Items)
	if err != nil {
		abortErr(ctx, err)
		return
	}

	viewer := viewerID(ctx)
	ctx.JSON(http.StatusOK, dto.MapPaged(page, func(cm *model.Comment) *dto.CommentView {
		return dto.Comment(cm, authors, viewer)
	}))
}

func (c *Controller) writeComment(ctx *gin.Context, status int, cm *model.Comment) {
	authors, err := c.svc.Comments.Authors(ctx, []*model.Comment{cm})
	if err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.JSON(status, dto.Comment(cm, authors, viewerID(ctx)))
}

func (c *Controller) articleComments(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var q pageQuery
	if !bindQuery(ctx, &q) {
		return
	}

	page, err := c.svc.Comments.List(ctx, id, q.Page, q.Limit)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	c.writeComments(ctx, page)
}

func (c *Controller) createComment(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var in dto.CommentInput
	if !bindJSON(ctx, &in) {
		return
	}

	cm, err := c.svc.Comments.Create(ctx, currentUser(ctx), id, &in)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	c.writeComment(ctx, http.StatusCreated, cm)
}

func (c *Controller) editComment(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var in dto.CommentInput
	if !bindJSON(ctx, &in) {
		return
	}

	cm, err := c.svc.Comments.Edit(ctx, currentUser(ctx), id, &in)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	c.writeComment(ctx, http.StatusOK, cm)
}

func (c *Controller) deleteComment(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.svc.Comments.Delete(ctx, currentUser(ctx), id); err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (c *Controller) likeComment(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	cm, err := c.svc.Comments.Like(ctx, currentUser(ctx), id)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	c.writeComment(ctx, http.StatusOK, cm)
}

type moderationQuery struct {
	pageQuery
	Status string `form:"status" binding:"omitempty,oneof=pending approved flagged deleted"`
}

func (c *Controller) moderationQueue(ctx *gin.Context) {
	var q moderationQuery
	if !bindQuery(ctx, &q) {
		return
	}

	page, err := c.svc.Comments.Moderation(ctx, q.Status, q.Page, q.Limit)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	c.writeComments(ctx, page)
}

func (c *Controller) setCommentStatus(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var in dto.CommentStatusInput
	if !bindJSON(ctx, &in) {
		return
	}

	cm, err := c.svc.Comments.SetStatus(ctx, id, in.Status)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	c.writeComment(ctx, http.StatusOK, cm)
}
