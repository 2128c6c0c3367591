package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/resumine/resumine/internal/services"
	apperrors "github.com/resumine/resumine/pkg/errors"
	"github.com/resumine/resumine/pkg/response"
)

// ProfileHandler exposes the profile-setup wizard endpoints.
type ProfileHandler struct {
	profiles *services.ProfileService
}

func NewProfileHandler(profiles *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

type profileRequest struct {
	Headline *string `json:"headline" validate:"omitempty,max=200"`
	Bio      *string `json:"bio" validate:"omitempty,max=2000"`
	Location *string `json:"location" validate:"omitempty,max=200"`
	Phone    *string `json:"phone" validate:"omitempty,max=40"`

	Skills     datatypes.JSON `json:"skills"`
	Links      datatypes.JSON `json:"links"`
	Education  datatypes.JSON `json:"education"`
	Experience datatypes.JSON `json:"experience"`
}

// Get handles GET /profile.
func (h *ProfileHandler) Get(c *gin.Context) {
	profile, err := h.profiles.Get(c.Request.Context(), currentUserID(c))
	if errors.Is(err, services.ErrProfileNotFound) {
		response.Error(c, apperrors.ErrNotFound)
		return
	}
	if err != nil {
		response.Error(c, apperrors.Wrap(err, "Could not load profile"))
		return
	}

	response.Success(c, http.StatusOK, profile)
}

// Update handles PUT /profile. Each wizard step submits only its own fields.
func (h *ProfileHandler) Update(c *gin.Context) {
	payload, ok := bindAndValidate[profileRequest](c)
	if !ok {
		return
	}

	profile, err := h.profiles.Update(c.Request.Context(), currentUserID(c), services.ProfileInput{
		Headline:   payload.Headline,
		Bio:        payload.Bio,
		Location:   payload.Location,
		Phone:      payload.Phone,
		Skills:     payload.Skills,
		Links:      payload.Links,
		Education:  payload.Education,
		Experience: payload.Experience,
	})
	if errors.Is(err, services.ErrProfileNotFound) {
		response.Error(c, apperrors.ErrNotFound)
		return
	}
	if err != nil {
		response.Error(c, apperrors.Wrap(err, "Could not update profile"))
		return
	}

	response.Success(c, http.StatusOK, profile)
}
