package handlers

import (
	"errors"
	"net/http"

	"servana/middleware"
	"servana/services/user"
	"servana/utils"

	"github.com/gin-gonic/gin"
)

func (hb *HandlerBundle) RegisterUserHandler(c *gin.Context) {
	var req user.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid registration", err.Error())
		return
	}
	resp, err := hb.Users.SignUp(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			utils.JSONError(c, http.StatusConflict, "email already registered", "")
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, "registration failed", err.Error())
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (hb *HandlerBundle) AuthenticateUserHandler(c *gin.Context) {
	var req user.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid credentials payload", err.Error())
		return
	}
	resp, err := hb.Users.SignIn(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			utils.JSONError(c, http.StatusUnauthorized, "invalid email or password", "")
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, "sign in failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (hb *HandlerBundle) GetUserProfileHandler(c *gin.Context) {
	profile, err := hb.Users.GetProfile(c.Request.Context(), middleware.ActorID(c))
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			utils.JSONError(c, http.StatusNotFound, "user not found", "")
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, "failed to load profile", err.Error())
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateUserFCMTokenHandler registers the caller's device for push delivery.
func (hb *HandlerBundle) UpdateUserFCMTokenHandler(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid token payload", err.Error())
		return
	}
	if err := hb.Users.UpdateFCMToken(c.Request.Context(), middleware.ActorID(c), req.Token); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to update device token", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}
