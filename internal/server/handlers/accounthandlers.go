package handlers

import (
	"net/http"

	"github.com/arod1104/uic-gradebook/internal/types"
	"github.com/gin-gonic/gin"
)

const invalidBody = "Invalid request body."

// Register creates an account and returns its API key. The key is shown only
// in this response.
func (h *Handler) Register(c *gin.Context) {
	var req types.Registration
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": invalidBody})
		return
	}

	key, err := h.accounts.Register(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"apiKey": key})
}

func (h *Handler) UpdateUser(c *gin.Context) {
	var req types.EmailUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": invalidBody})
		return
	}

	if err := h.accounts.UpdateEmail(c.Request.Context(), req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) DeleteUser(c *gin.Context) {
	var req types.AccountDeletion
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": invalidBody})
		return
	}

	revoked, err := h.accounts.Delete(c.Request.Context(), req)
	for _, key := range revoked {
		h.revoked(key)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
