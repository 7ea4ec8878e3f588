package notification

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"scholarcrm/internal/pkg/response"
)

// Handler exposes the outbox to admins.
type Handler struct {
	outbox *Outbox
	sender Sender
}

func NewHandler(outbox *Outbox, sender Sender) *Handler {
	return &Handler{outbox: outbox, sender: sender}
}

// ListQueued handles GET /api/v1/outbox[?limit=]
func (h *Handler) ListQueued(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	emails, err := h.outbox.ListQueued(c.Request.Context(), limit)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"emails": emails, "total": len(emails)})
}

// ListForProject handles GET /api/v1/outbox/projects/:id
func (h *Handler) ListForProject(c *gin.Context) {
	emails, err := h.outbox.ListForProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"emails": emails, "total": len(emails)})
}

// Flush handles POST /api/v1/outbox/flush
func (h *Handler) Flush(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	sent, err := h.outbox.Flush(c.Request.Context(), h.sender, limit)
	if err != nil {
		response.ErrorWithDetails(c, http.StatusBadGateway, "FLUSH_FAILED", "Outbox flush stopped", gin.H{"sent": sent, "error": err.Error()})
		return
	}

	response.Success(c, http.StatusOK, gin.H{"sent": sent})
}
