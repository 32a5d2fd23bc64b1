package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/cahsa-api/internal/models"
	"github.com/noah-isme/cahsa-api/pkg/response"
)

type studentDirectoryService interface {
	Lookup(ctx context.Context, pid string) (*models.StudentDirectoryEntry, error)
}

// StudentHandler exposes the student directory lookup.
type StudentHandler struct {
	directory studentDirectoryService
}

// NewStudentHandler constructs a StudentHandler.
func NewStudentHandler(directory studentDirectoryService) *StudentHandler {
	return &StudentHandler{directory: directory}
}

type studentView struct {
	PID         string `json:"pid"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// Lookup godoc
// @Summary Look up a student by PID
// @Tags Students
// @Produce json
// @Param pid path string true "Student PID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{pid} [get]
func (h *StudentHandler) Lookup(c *gin.Context) {
	entry, err := h.directory.Lookup(c.Request.Context(), c.Param("pid"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, studentView{
		PID:         entry.PID,
		FirstName:   entry.FirstName,
		LastName:    entry.LastName,
		Email:       entry.Email,
		DisplayName: entry.DisplayName(),
	})
}
