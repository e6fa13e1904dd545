package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/car-marketplace/internal/queue"
	"github.com/iliyamo/car-marketplace/internal/service"
)

func (h *AuthHandler) Profile(c echo.Context) error {
	return c.Render(http.StatusOK, "profile", page(c, "Profile"))
}

// ToProfile answers GET on the profile form targets.
func (h *AuthHandler) ToProfile(c echo.Context) error {
	return c.Redirect(http.StatusSeeOther, "/profile")
}

// DeleteProfile removes the signed-in account with its listings and cart,
// then ends the session.
func (h *AuthHandler) DeleteProfile(c echo.Context) error {
	user := username(c)

	ctx, cancel := dbContext(c)
	defer cancel()

	removed, err := h.Auth.DeleteAccount(ctx, user)
	if err != nil {
		log.Printf("profile: delete %s failed: %v", user, err)
		return seeOther(c, "/profile?err=failed")
	}
	if removed {
		h.accountDeleted(c, user)
	}
	_ = h.Sessions.Destroy(c.Response(), c.Request())

	if wantsJSON(c) {
		return c.JSON(http.StatusOK, echo.Map{"status": "success", "message": "account deleted"})
	}
	return seeOther(c, "/login?deleted=1")
}

type passwordReq struct {
	Password string `json:"password" form:"password"`
}

// ChangePassword re-hashes the signed-in user's password.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req passwordReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "profile", "Profile", "password must be a string")
	}
	if req.Password == "" {
		return fail(c, http.StatusBadRequest, "profile", "Profile", "password is required")
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	user := username(c)
	if err := h.Auth.ChangePassword(ctx, user, req.Password); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return Unauthorized(c)
		}
		log.Printf("profile: change password for %s failed: %v", user, err)
		return seeOther(c, "/profile?err=failed")
	}

	if wantsJSON(c) {
		return c.JSON(http.StatusOK, echo.Map{"status": "success", "message": "password updated"})
	}
	p := page(c, "Profile")
	p.Message = "Password updated."
	return c.Render(http.StatusOK, "profile", p)
}

type deleteTestReq struct {
	Username string `json:"username" form:"username"`
}

// DeleteProfileTest deletes an account by name without a session. It is
// only routed when APP_ENV=test.
func (h *AuthHandler) DeleteProfileTest(c echo.Context) error {
	var req deleteTestReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": ErrInvalidType.Error()})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": ErrMissingField.Error()})
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	removed, err := h.Auth.DeleteAccount(ctx, req.Username)
	if err != nil {
		log.Printf("profile: test delete %s failed: %v", req.Username, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	if removed {
		h.accountDeleted(c, req.Username)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "message": "user deleted"})
}

func (h *AuthHandler) accountDeleted(c echo.Context, user string) {
	ctx, cancel := dbContext(c)
	defer cancel()
	_ = h.Events.Publish(ctx, queue.ListingEvent{
		Type:       queue.EventAccountDeleted,
		Username:   user,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
}
