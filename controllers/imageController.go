package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"nivaran-be/logger"
	"nivaran-be/store"
)

type ImageController struct {
	Images store.ImageStore
	Log    *logger.Logger
}

// GetImage streams an uploaded evidence photo.
func (ic *ImageController) GetImage(c *gin.Context) {
	rc, a, err := ic.Images.OpenImage(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
		return
	}
	if err != nil {
		ic.Log.Error("open image failed", "id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}
	defer rc.Close()

	contentType := a.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Cache-Control", "private, max-age=86400")
	c.DataFromReader(http.StatusOK, -1, contentType, rc, nil)
}
