package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) getCredential(c *gin.Context) {
	configured, err := s.creds.Configured()
	if err != nil {
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to read credential", false, nil)
		return
	}
	writeData(c, http.StatusOK, gin.H{"configured": configured})
}

type putCredentialRequest struct {
	APIKey string `json:"api_key" binding:"required"`
}

func (s *Server) putCredential(c *gin.Context) {
	if !requireJSON(c) {
		return
	}
	var req putCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "api_key is required", false, nil)
		return
	}
	if err := s.creds.Set(req.APIKey); err != nil {
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to store credential", false, nil)
		return
	}
	writeData(c, http.StatusOK, gin.H{"configured": true})
}

func (s *Server) deleteCredential(c *gin.Context) {
	if err := s.creds.Clear(); err != nil {
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to clear credential", false, nil)
		return
	}
	writeData(c, http.StatusOK, gin.H{"configured": false})
}
