// Package server exposes the processing pipeline over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rezonia/dian-processor/internal/blobstore"
	"github.com/rezonia/dian-processor/internal/model"
	"github.com/rezonia/dian-processor/internal/ocr"
	"github.com/rezonia/dian-processor/internal/processor"
	"github.com/rezonia/dian-processor/pkg/logger"
)

// Config holds server configuration
type Config struct {
	Address      string
	OCRAPIKey    string
	OCRBaseURL   string
	OCRModel     string
	BlobBackend  string
	BlobDir      string
	BlobBucket   string
	BlobRegion   string
	BlobPrefix   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Debug        bool
}

// Server represents the HTTP API server
type Server struct {
	config   *Config
	router   *gin.Engine
	pipeline *processor.Pipeline
}

// NewServer creates an API server, wiring the blob store and OCR engine
// from config. Without an OCR API key, package reconciliation is skipped.
func NewServer(config *Config, log *logger.Logger) (*Server, error) {
	opts := []processor.Option{processor.WithLogger(log)}

	if config.OCRAPIKey != "" {
		var clientOpts []ocr.ClientOption
		if config.OCRBaseURL != "" {
			clientOpts = append(clientOpts, ocr.WithBaseURL(config.OCRBaseURL))
		}
		if config.OCRModel != "" {
			clientOpts = append(clientOpts, ocr.WithDefaultModel(config.OCRModel))
		}
		client := ocr.NewClient(config.OCRAPIKey, clientOpts...)
		opts = append(opts, processor.WithOCREngine(ocr.NewVisionEngine(client)))
	}

	switch config.BlobBackend {
	case "s3":
		store, err := blobstore.NewS3Store(context.Background(), config.BlobBucket, config.BlobRegion, config.BlobPrefix)
		if err != nil {
			return nil, err
		}
		opts = append(opts, processor.WithStore(store))
	case "fs":
		store, err := blobstore.NewFSStore(config.BlobDir)
		if err != nil {
			return nil, err
		}
		opts = append(opts, processor.WithStore(store))
	}

	return NewServerWithPipeline(config, processor.NewPipeline(opts...)), nil
}

// NewServerWithPipeline wires an existing pipeline, for tests and custom
// collaborators.
func NewServerWithPipeline(config *Config, pipeline *processor.Pipeline) *Server {
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if config.Debug {
		router.Use(gin.Logger())
	}

	s := &Server{
		config:   config,
		router:   router,
		pipeline: pipeline,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", s.handleHealth)

	// API v1
	v1 := s.router.Group("/api/v1")
	{
		// Process endpoints
		v1.POST("/process/xml", s.handleProcessXML)
		v1.POST("/process/package", s.handleProcessPackage)

		// Validation and reconciliation
		v1.POST("/validate", s.handleValidate)
		v1.POST("/compare", s.handleCompare)

		// Rules listing
		v1.GET("/rules", s.handleRules)

		// Info endpoint
		v1.POST("/info", s.handleInfo)
	}
}

// Run starts the HTTP server
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:         s.config.Address,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	return srv.ListenAndServe()
}

// Handler returns the http.Handler for use with custom servers
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleProcessXML(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	if len(body) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty request body"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	result := s.pipeline.ProcessXMLBytes(ctx, body, nil)
	if result.Error != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":    result.Error.Error(),
			"warnings": result.Warnings,
		})
		return
	}

	c.JSON(http.StatusOK, processResponse(result))
}

// handleProcessPackage accepts either a raw ZIP body or a JSON request
// naming a package path in the blob store.
func (s *Server) handleProcessPackage(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	if len(body) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty request body"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Minute)
	defer cancel()

	var result *processor.Result
	if processor.DetectFormat(body) == processor.FormatZIP {
		result = s.pipeline.ProcessPackageBytes(ctx, body, nil)
	} else {
		var req PackageRequest
		if err := json.Unmarshal(body, &req); err != nil || req.Path == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "expected a ZIP body or a JSON request with a path"})
			return
		}
		result = s.pipeline.ProcessPackage(ctx, req.Path, req.Rules)
	}

	if result.Error != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":    result.Error.Error(),
			"warnings": result.Warnings,
		})
		return
	}

	c.JSON(http.StatusOK, processResponse(result))
}

// handleValidate accepts either a raw XML body or a JSON request carrying
// the XML plus dynamic rules.
func (s *Server) handleValidate(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	if len(body) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty request body"})
		return
	}

	xmlData := body
	var dynamic []model.ValidationRule
	if bytes.HasPrefix(bytes.TrimSpace(body), []byte("{")) {
		var req ValidateRequest
		if err := json.Unmarshal(body, &req); err != nil || req.XML == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid validate request"})
			return
		}
		xmlData = []byte(req.XML)
		dynamic = req.Rules
	}

	if processor.DetectFormat(xmlData) != processor.FormatXML {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only XML validation is supported"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	result := s.pipeline.ProcessXMLBytes(ctx, xmlData, dynamic)
	if result.Error != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": result.Error.Error()})
		return
	}

	c.JSON(http.StatusOK, result.Validation)
}

func (s *Server) handleCompare(c *gin.Context) {
	var req CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid compare request"})
		return
	}
	if req.XML == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing invoice XML"})
		return
	}

	comparison, err := s.pipeline.Compare([]byte(req.XML), req.OCFields)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, comparison)
}

func (s *Server) handleRules(c *gin.Context) {
	rules := s.pipeline.Rules(nil)
	c.JSON(http.StatusOK, RulesResponse{
		Rules: rules,
		Count: len(rules),
	})
}

func (s *Server) handleInfo(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	if len(body) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty request body"})
		return
	}

	format := processor.DetectFormat(body)

	c.JSON(http.StatusOK, InfoResponse{
		Format:   format.String(),
		MimeType: detectMimeType(body),
		Size:     len(body),
	})
}

// Helper functions

func detectMimeType(data []byte) string {
	if len(data) < 4 {
		return "application/octet-stream"
	}

	switch processor.DetectFormat(data) {
	case processor.FormatZIP:
		return "application/zip"
	case processor.FormatPDF:
		return "application/pdf"
	case processor.FormatXML:
		return "application/xml"
	}

	return "application/octet-stream"
}

func processResponse(result *processor.Result) ProcessResponse {
	return ProcessResponse{
		PackageID:   result.PackageID,
		Invoice:     result.Invoice,
		Fields:      result.Fields,
		Validation:  result.Validation,
		Comparison:  result.Comparison,
		XMLFileName: result.XMLFileName,
		Attachments: result.Attachments,
		Warnings:    result.Warnings,
	}
}
