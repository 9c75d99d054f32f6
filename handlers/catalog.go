package handlers

import (
	"errors"
	"net/http"

	"servana/services/catalog"
	"servana/utils"

	"github.com/gin-gonic/gin"
)

// ListServiceTypesHandler returns the bookable service types for a category.
func (hb *HandlerBundle) ListServiceTypesHandler(c *gin.Context) {
	types, err := hb.Catalog.ListByCategory(c.Request.Context(), c.Param("category"))
	if err != nil {
		if errors.Is(err, catalog.ErrUnknownCategory) {
			utils.JSONError(c, http.StatusBadRequest, "unknown category", err.Error())
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, "failed to list service types", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"serviceTypes": types})
}
