package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/dian-processor/internal/config"
	"github.com/rezonia/dian-processor/internal/server"
	"github.com/rezonia/dian-processor/pkg/logger"
)

var (
	serverAddr   string
	serverDebug  bool
	readTimeout  time.Duration
	writeTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP API server for processing DIAN invoices.

The API provides endpoints for:
  - POST /api/v1/process/xml      - Process a UBL invoice XML
  - POST /api/v1/process/package  - Process an invoice package (ZIP or blob path)
  - POST /api/v1/validate         - Run validation rules
  - POST /api/v1/compare          - Reconcile against OC fields
  - GET  /api/v1/rules            - List validation rules
  - POST /api/v1/info             - Get file information
  - GET  /health                  - Health check

Blob store and OCR credentials come from the environment (.env supported):
BLOB_BACKEND, BLOB_LOCAL_DIR, BLOB_S3_BUCKET, OCR_API_KEY, OCR_MODEL.

Examples:
  # Start server on default port
  dian-processor serve

  # Start on custom port with OCR enabled
  dian-processor serve --address :8080 --api-key <key>

  # Start in debug mode
  dian-processor serve --debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverAddr, "address", "", "Server listen address (default from env)")
	serveCmd.Flags().BoolVar(&serverDebug, "debug", false, "Enable debug mode")
	serveCmd.Flags().DurationVar(&readTimeout, "read-timeout", 30*time.Second, "HTTP read timeout")
	serveCmd.Flags().DurationVar(&writeTimeout, "write-timeout", 5*time.Minute, "HTTP write timeout")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	address := serverAddr
	if address == "" {
		address = cfg.HTTP.Addr()
	}
	if apiKey == "" {
		apiKey = cfg.OCR.APIKey
	}
	if ocrBaseURL == "" {
		ocrBaseURL = cfg.OCR.BaseURL
	}
	if ocrModel == "" {
		ocrModel = cfg.OCR.Model
	}

	serverConfig := &server.Config{
		Address:      address,
		OCRAPIKey:    apiKey,
		OCRBaseURL:   ocrBaseURL,
		OCRModel:     ocrModel,
		BlobBackend:  cfg.Blob.Backend,
		BlobDir:      cfg.Blob.LocalDir,
		BlobBucket:   cfg.Blob.Bucket,
		BlobRegion:   cfg.Blob.Region,
		BlobPrefix:   cfg.Blob.Prefix,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		Debug:        serverDebug,
	}

	srv, err := server.NewServer(serverConfig, log)
	if err != nil {
		return err
	}

	// Handle graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		fmt.Println("\nShutting down server...")
		os.Exit(0)
	}()

	log.Info().Str("address", address).Str("blob_backend", cfg.Blob.Backend).Msg("starting server")
	if apiKey != "" {
		log.Info().Msg("OCR extraction enabled")
	} else {
		log.Warn().Msg("OCR extraction disabled (no API key)")
	}

	return srv.Run()
}
