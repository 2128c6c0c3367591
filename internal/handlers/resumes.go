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

// ResumeHandler serves resume CRUD plus the AI enhancement endpoint.
type ResumeHandler struct {
	resumes *services.ResumeService
	enhance *services.EnhanceService
}

func NewResumeHandler(resumes *services.ResumeService, enhance *services.EnhanceService) *ResumeHandler {
	return &ResumeHandler{resumes: resumes, enhance: enhance}
}

type createResumeRequest struct {
	Title    string         `json:"title" validate:"omitempty,max=200"`
	Content  string         `json:"content" validate:"required"`
	Sections datatypes.JSON `json:"sections"`
}

type updateResumeRequest struct {
	Title    *string        `json:"title" validate:"omitempty,max=200"`
	Content  *string        `json:"content"`
	Sections datatypes.JSON `json:"sections"`
}

// Create handles POST /resumes.
func (h *ResumeHandler) Create(c *gin.Context) {
	payload, ok := bindAndValidate[createResumeRequest](c)
	if !ok {
		return
	}

	resume, err := h.resumes.Create(c.Request.Context(), currentUserID(c), services.CreateResumeInput{
		Title:    payload.Title,
		Content:  payload.Content,
		Sections: payload.Sections,
	})
	if err != nil {
		response.Error(c, apperrors.Wrap(err, "Could not save resume"))
		return
	}

	response.Success(c, http.StatusCreated, resume)
}

// List handles GET /resumes.
func (h *ResumeHandler) List(c *gin.Context) {
	resumes, err := h.resumes.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		response.Error(c, apperrors.Wrap(err, "Could not list resumes"))
		return
	}

	response.Success(c, http.StatusOK, resumes)
}

// Get handles GET /resumes/:id.
func (h *ResumeHandler) Get(c *gin.Context) {
	resume, err := h.resumes.Get(c.Request.Context(), currentUserID(c), c.Param("id"))
	if errors.Is(err, services.ErrResumeNotFound) {
		response.Error(c, apperrors.ErrNotFound)
		return
	}
	if err != nil {
		response.Error(c, apperrors.Wrap(err, "Could not load resume"))
		return
	}

	response.Success(c, http.StatusOK, resume)
}

// Update handles PUT /resumes/:id.
func (h *ResumeHandler) Update(c *gin.Context) {
	payload, ok := bindAndValidate[updateResumeRequest](c)
	if !ok {
		return
	}

	resume, err := h.resumes.Update(c.Request.Context(), currentUserID(c), c.Param("id"), services.UpdateResumeInput{
		Title:    payload.Title,
		Content:  payload.Content,
		Sections: payload.Sections,
	})
	if errors.Is(err, services.ErrResumeNotFound) {
		response.Error(c, apperrors.ErrNotFound)
		return
	}
	if err != nil {
		response.Error(c, apperrors.Wrap(err, "Could not update resume"))
		return
	}

	response.Success(c, http.StatusOK, resume)
}

// Delete handles DELETE /resumes/:id.
func (h *ResumeHandler) Delete(c *gin.Context) {
	err := h.resumes.Delete(c.Request.Context(), currentUserID(c), c.Param("id"))
	if errors.Is(err, services.ErrResumeNotFound) {
		response.Error(c, apperrors.ErrNotFound)
		return
	}
	if err != nil {
		response.Error(c, apperrors.Wrap(err, "Could not delete resume"))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Resume deleted"})
}

// Enhance handles POST /resumes/:id/enhance.
func (h *ResumeHandler) Enhance(c *gin.Context) {
	feedback, err := h.enhance.Enhance(c.Request.Context(), currentUserID(c), c.Param("id"))
	if errors.Is(err, services.ErrResumeNotFound) {
		response.Error(c, apperrors.ErrNotFound)
		return
	}
	if errors.Is(err, services.ErrEnhanceUnavailable) {
		response.Error(c, apperrors.New("ENHANCE_UNAVAILABLE", "The enhancement service is unavailable right now", http.StatusServiceUnavailable).WithInternal(err))
		return
	}
	if err != nil {
		response.Error(c, apperrors.Wrap(err, "Could not enhance resume"))
		return
	}

	response.Success(c, http.StatusOK, feedback)
}
