package api

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"deepcheck/internal/domain"
	"deepcheck/internal/usecase/verify"
	"deepcheck/internal/version"
)

// imageExtensions and videoExtensions map upload file extensions onto the
// media analysis paths.
var (
	imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}
	videoExtensions = map[string]bool{".mp4": true, ".mov": true, ".avi": true, ".webm": true, ".mkv": true}
)

// Server exposes the verification pipeline over HTTP.
type Server struct {
	orchestrator *verify.Orchestrator
	mediaStore   verify.MediaStore
	claimStore   verify.ClaimStore
	uploadDir    string
	engine       *gin.Engine
}

// NewServer builds the HTTP server and its routes.
func NewServer(orchestrator *verify.Orchestrator, mediaStore verify.MediaStore, claimStore verify.ClaimStore, uploadDir string) *Server {
	s := &Server{
		orchestrator: orchestrator,
		mediaStore:   mediaStore,
		claimStore:   claimStore,
		uploadDir:    uploadDir,
		engine:       gin.Default(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.engine.Group("/api")
	{
		api.GET("/health", s.health)

		api.POST("/media", s.uploadMedia)
		api.GET("/media", s.listMedia)
		api.GET("/media/:id", s.getMedia)
		api.POST("/media/:id/analyze", s.analyzeMedia)

		api.POST("/claims", s.submitClaim)
		api.GET("/claims", s.listClaims)
		api.GET("/claims/:id", s.getClaim)
		api.POST("/claims/:id/verify", s.verifyClaim)
	}
}

// Run blocks serving HTTP on the given address.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

// Handler exposes the underlying handler (for tests).
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.Version()})
}

func (s *Server) uploadMedia(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	var kind domain.MediaKind
	switch {
	case imageExtensions[ext]:
		kind = domain.MediaImage
	case videoExtensions[ext]:
		kind = domain.MediaVideo
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unsupported file extension %q", ext)})
		return
	}

	// Stored name is unique per upload; the original name survives on the
	// record only.
	storedName := uuid.NewString() + ext
	storedPath := filepath.Join(s.uploadDir, storedName)
	if err := c.SaveUploadedFile(file, storedPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("store upload: %v", err)})
		return
	}

	analysis, err := s.orchestrator.SubmitMedia(c.Request.Context(), file.Filename, storedPath, kind, file.Size)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, analysis)
}

func (s *Server) analyzeMedia(c *gin.Context) {
	analysis, err := s.orchestrator.StartMediaAnalysis(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

func (s *Server) getMedia(c *gin.Context) {
	analysis, err := s.mediaStore.GetMediaAnalysis(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

func (s *Server) listMedia(c *gin.Context) {
	analyses, err := s.mediaStore.ListMediaAnalyses(c.Request.Context(), queryLimit(c))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": analyses})
}

type claimRequest struct {
	Text        string `json:"text" binding:"required"`
	SourceURL   string `json:"sourceUrl"`
	SourceTitle string `json:"sourceTitle"`
}

func (s *Server) submitClaim(c *gin.Context) {
	var req claimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	analysis, err := s.orchestrator.SubmitClaim(c.Request.Context(), req.Text, req.SourceURL, req.SourceTitle)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, analysis)
}

func (s *Server) verifyClaim(c *gin.Context) {
	analysis, err := s.orchestrator.StartClaimAnalysis(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

func (s *Server) getClaim(c *gin.Context) {
	analysis, err := s.claimStore.GetClaimAnalysis(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

func (s *Server) listClaims(c *gin.Context) {
	analyses, err := s.claimStore.ListClaimAnalyses(c.Request.Context(), queryLimit(c))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": analyses})
}

// renderError maps domain errors onto HTTP status codes.
func (s *Server) renderError(c *gin.Context, err error) {
	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case strings.Contains(err.Error(), "not found"):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case strings.Contains(err.Error(), "cannot start"):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func queryLimit(c *gin.Context) int {
	raw := c.Query("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}
