package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) listVideoHistory(c *gin.Context) {
	writeData(c, http.StatusOK, gin.H{"records": s.videos.List()})
}

func (s *Server) downloadVideo(c *gin.Context) {
	data, ok, err := s.videos.Media(c.Param("record_id"))
	if err != nil {
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load video", false, nil)
		return
	}
	if !ok {
		writeNotFound(c, "MEDIA_NOT_FOUND", "Video not found")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="veo-video-`+c.Param("record_id")+`.mp4"`)
	c.Data(http.StatusOK, "video/mp4", data)
}

func (s *Server) removeVideoRecord(c *gin.Context) {
	if err := s.videos.Remove(c.Param("record_id")); err != nil {
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to remove record", false, nil)
		return
	}
	writeData(c, http.StatusOK, gin.H{"ok": true})
}

func (s *Server) clearVideoHistory(c *gin.Context) {
	if err := s.videos.Clear(); err != nil {
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to clear history", false, nil)
		return
	}
	writeData(c, http.StatusOK, gin.H{"ok": true})
}

func (s *Server) listImageHistory(c *gin.Context) {
	writeData(c, http.StatusOK, gin.H{"records": s.images.List()})
}

func (s *Server) downloadImage(c *gin.Context) {
	data, ok, err := s.images.Media(c.Param("record_id"))
	if err != nil {
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load image", false, nil)
		return
	}
	if !ok {
		writeNotFound(c, "MEDIA_NOT_FOUND", "Image not found")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="veo-image-`+c.Param("record_id")+`.png"`)
	c.Data(http.StatusOK, "image/png", data)
}

func (s *Server) removeImageRecord(c *gin.Context) {
	if err := s.images.Remove(c.Param("record_id")); err != nil {
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to remove record", false, nil)
		return
	}
	writeData(c, http.StatusOK, gin.H{"ok": true})
}

func (s *Server) clearImageHistory(c *gin.Context) {
	if err := s.images.Clear(); err != nil {
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to clear history", false, nil)
		return
	}
	writeData(c, http.StatusOK, gin.H{"ok": true})
}
