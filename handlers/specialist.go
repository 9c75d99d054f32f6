package handlers

import (
	"errors"
	"net/http"

	"servana/middleware"
	"servana/services/specialist"
	"servana/utils"

	"github.com/gin-gonic/gin"
)

func (hb *HandlerBundle) RegisterSpecialistHandler(c *gin.Context) {
	var req specialist.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid registration", err.Error())
		return
	}
	resp, err := hb.Specialists.SignUp(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, specialist.ErrEmailTaken):
			utils.JSONError(c, http.StatusConflict, "email already registered", "")
		case errors.Is(err, specialist.ErrInvalidSpecialization):
			utils.JSONError(c, http.StatusBadRequest, "invalid specialization", err.Error())
		default:
			utils.JSONError(c, http.StatusInternalServerError, "registration failed", err.Error())
		}
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (hb *HandlerBundle) AuthenticateSpecialistHandler(c *gin.Context) {
	var req specialist.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid credentials payload", err.Error())
		return
	}
	resp, err := hb.Specialists.SignIn(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, specialist.ErrInvalidCredentials) {
			utils.JSONError(c, http.StatusUnauthorized, "invalid email or password", "")
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, "sign in failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (hb *HandlerBundle) GetSpecialistProfileHandler(c *gin.Context) {
	profile, err := hb.Specialists.GetProfile(c.Request.Context(), middleware.ActorID(c))
	if err != nil {
		if errors.Is(err, specialist.ErrSpecialistNotFound) {
			utils.JSONError(c, http.StatusNotFound, "specialist not found", "")
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, "failed to load profile", err.Error())
		return
	}
	c.JSON(http.StatusOK, profile)
}

// SetAvailabilityHandler toggles whether the specialist receives new
// auto-assigned jobs.
func (hb *HandlerBundle) SetAvailabilityHandler(c *gin.Context) {
	var req struct {
		Available *bool `json:"available" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid availability payload", err.Error())
		return
	}
	if err := hb.Specialists.SetAvailability(c.Request.Context(), middleware.ActorID(c), *req.Available); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to update availability", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": *req.Available})
}

func (hb *HandlerBundle) UpdateSpecialistFCMTokenHandler(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid token payload", err.Error())
		return
	}
	if err := hb.Specialists.UpdateFCMToken(c.Request.Context(), middleware.ActorID(c), req.Token); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to update device token", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

// UploadSpecialistPhotoHandler stores a profile photo and records its
// permanent ID on the specialist.
func (hb *HandlerBundle) UploadSpecialistPhotoHandler(c *gin.Context) {
	fileHeader, err := c.FormFile("photo")
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "photo file is required", err.Error())
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "could not read uploaded photo", err.Error())
		return
	}
	defer file.Close()

	publicID, err := hb.Storage.UploadFile(c.Request.Context(), file, "specialists/photos")
	if err != nil {
		utils.JSONError(c, http.StatusBadGateway, "photo upload failed", err.Error())
		return
	}
	if err := hb.Specialists.UpdatePhoto(c.Request.Context(), middleware.ActorID(c), publicID); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to save photo reference", err.Error())
		return
	}

	url, _ := hb.Storage.GetDownloadURL(publicID)
	c.JSON(http.StatusOK, gin.H{"photoId": publicID, "url": url})
}

// ListEarningsHandler returns the caller's payout records.
func (hb *HandlerBundle) ListEarningsHandler(c *gin.Context) {
	records, err := hb.Earnings.ListBySpecialist(c.Request.Context(), middleware.ActorID(c))
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to list earnings", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"earnings": records})
}
