package handlers

import (
	"errors"
	"net/http"

	"github.com/arod1104/uic-gradebook/internal/grades"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// SearchGrades filters the grade table by any column given as a query
// parameter. exact=true switches text columns to whole-value matching and
// detailed=true returns every column. At most grades.MaxResults rows come
// back; count is the total number of matches.
func (h *Handler) SearchGrades(c *gin.Context) {
	filters, flags := grades.SplitParams(c.Request.URL.Query())

	query, err := grades.Translate(filters, flags)
	if err != nil {
		if errors.Is(err, grades.ErrInvalidNumber) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	data, count, err := h.grades.SearchGrades(c.Request.Context(), query)
	if err != nil {
		log.Error().Err(err).Msg("grade search failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  data,
		"count": count,
	})
}
