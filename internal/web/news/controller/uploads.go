package controller

import (
	"net/http"

	"github.com/Laisky/errors/v2"
	"github.com/gin-gonic/gin"

	"github.com/Laisky/multilingual-news/internal/web/news/dto"
	"github.com/Laisky/multilingual-news/internal/web/news/model"
)

// multipartSlack room for multipart framing around the file
const multipartSlack = 1 << 20

func (c *Controller) uploadGrant(ctx *gin.Context) {
	var in dto.UploadGrantInput
	if !bindJSON(ctx, &in) {
		return
	}

	grant, err := c.svc.Uploads.Grant(ctx, &in)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, grant)
}

func (c *Controller) upload(ctx *gin.Context) {
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, c.svc.Uploads.MaxBytes()+multipartSlack)

	fh, err := ctx.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortErr(ctx, model.Invalid("file", "file exceeds %d bytes", c.svc.Uploads.MaxBytes()))
			return
		}
		abortErr(ctx, model.Invalid("file", "multipart field file is required"))
		return
	}

	f, err := fh.Open()
	if err != nil {
		abortErr(ctx, errors.Wrap(err, "open uploaded file"))
		return
	}
	defer f.Close() //nolint:errcheck

	obj, err := c.svc.Uploads.Put(ctx, fh.Filename, fh.Header.Get("Content-Type"), f, fh.Size)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, obj)
}

func (c *Controller) deleteUpload(ctx *gin.Context) {
	var in dto.DeleteUploadInput
	if !bindJSON(ctx, &in) {
		return
	}

	if err := c.svc.Uploads.Delete(ctx, in.Key); err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
