package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Laisky/multilingual-news/internal/web/news/dto"
)

// setTokenCookie mirror the bearer token into an http-only cookie
func (c *Controller) setTokenCookie(ctx *gin.Context, token string, maxAge int) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(TokenCookie, token, maxAge, "/", "", c.cfg.SecureCookie, true)
}

func (c *Controller) register(ctx *gin.Context) {
	var in dto.RegisterInput
	if !bindJSON(ctx, &in) {
		return
	}

	resp, err := c.svc.Users.Register(ctx, &in)
	if err != nil {
		abortErr(ctx, err)
		return
	}

	c.setTokenCookie(ctx, resp.Token, int(c.svc.Users.TokenTTL().Seconds()))
	ctx.JSON(http.StatusCreated, resp)
}

func (c *Controller) login(ctx *gin.Context) {
	var in dto.LoginInput
	if !bindJSON(ctx, &in) {
		return
	}

	resp, err := c.svc.Users.Login(ctx, &in)
	if err != nil {
		abortErr(ctx, err)
		return
	}

	c.setTokenCookie(ctx, resp.Token, int(c.svc.Users.TokenTTL().Seconds()))
	ctx.JSON(http.StatusOK, resp)
}

func (c *Controller) logout(ctx *gin.Context) {
	c.setTokenCookie(ctx, "", -1)
	ctx.Status(http.StatusNoContent)
}

func (c *Controller) me(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, currentUser(ctx))
}

func (c *Controller) changePassword(ctx *gin.Context) {
	var in dto.ChangePasswordInput
	if !bindJSON(ctx, &in) {
		return
	}

	if err := c.svc.Users.ChangePassword(ctx, currentUser(ctx), &in); err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (c *Controller) updateProfile(ctx *gin.Context) {
	var in dto.ProfileInput
	if !bindJSON(ctx, &in) {
		return
	}

	u, err := c.svc.Users.UpdateProfile(ctx, currentUser(ctx), &in)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, u)
}

func (c *Controller) updatePreferences(ctx *gin.Context) {
	var in dto.PreferencesInput
	if !bindJSON(ctx, &in) {
		return
	}

	u, err := c.svc.Users.UpdatePreferences(ctx, currentUser(ctx), &in)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, u)
}

type userListQuery struct {
	pageQuery
	Role   string `form:"role" binding:"omitempty,oneof=user reporter admin"`
	Search string `form:"search" binding:"max=200"`
}

func (c *Controller) listUsers(ctx *gin.Context) {
	var q userListQuery
	if !bindQuery(ctx, &q) {
		return
	}

	page, err := c.svc.Users.List(ctx, q.Role, q.Search, q.Page, q.Limit)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, page)
}

func (c *Controller) reporters(ctx *gin.Context) {
	users, err := c.svc.Users.Reporters(ctx)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, users)
}

func (c *Controller) getUser(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	u, err := c.svc.Users.Get(ctx, id)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, u)
}

func (c *Controller) createUser(ctx *gin.Context) {
	var in dto.AdminUserInput
	if !bindJSON(ctx, &in) {
		return
	}

	u, err := c.svc.Users.AdminCreate(ctx, &in)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, u)
}

func (c *Controller) updateUser(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var in dto.AdminUserInput
	if !bindJSON(ctx, &in) {
		return
	}

	u, err := c.svc.Users.AdminUpdate(ctx, currentUser(ctx), id, &in)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, u)
}

func (c *Controller) deleteUser(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.svc.Users.AdminDelete(ctx, currentUser(ctx), id); err != nil {
		abortErr(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
