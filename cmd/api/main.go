package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"woo-exporter/internal/types"
	"woo-exporter/pipeline"
)

// ExportRequest is the request body for the export endpoint: the URL
// list plus the batch configuration the UI collected from the user.
type ExportRequest struct {
	URLs      []string `json:"urls"`
	Category  string   `json:"category,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	SKUPrefix string   `json:"sku_prefix,omitempty"`
}

// ExportResponse reports one bundle summary per submitted URL.
type ExportResponse struct {
	Success bool                  `json:"success"`
	Results []types.ProductBundle `json:"results,omitempty"`
	Error   string                `json:"error,omitempty"`
}

// Server holds the API server configuration.
type Server struct {
	logger *logrus.Logger
	config *types.Config
}

// NewServer creates a new API server.
func NewServer() *Server {
	// Load .env file if present
	_ = godotenv.Load()

	// Setup logging
	logger := logrus.New()

	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
		if level, err := logrus.ParseLevel(levelStr); err == nil {
			logger.SetLevel(level)
		}
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	config := types.DefaultConfig()
	// API responses carry the rows and statuses; the UI layer decides
	// what to persist, so nothing is written to disk here.
	config.OutputDir = ""

	return &Server{
		logger: logger,
		config: config,
	}
}

// handleExport runs the pipeline for a submitted URL list.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	// Set CORS headers
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "POST" {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.URLs) == 0 {
		s.sendError(w, "No product URLs provided", http.StatusBadRequest)
		return
	}

	s.logger.Infof("API request received for %d URLs", len(req.URLs))

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Minute)
	defer cancel()

	runner := pipeline.NewRunner(s.config, s.logger)
	defer runner.Close()

	export := types.ExportConfig{
		Category:  req.Category,
		Tags:      req.Tags,
		SKUPrefix: req.SKUPrefix,
	}
	bundles := runner.Run(ctx, req.URLs, export)

	response := ExportResponse{
		Success: true,
		Results: bundles,
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Errorf("Failed to encode response: %v", err)
	}
}

// sendError sends an error response.
func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	response := ExportResponse{
		Success: false,
		Error:   message,
	}

	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Errorf("Failed to encode error response: %v", err)
	}
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

// Start starts the API server.
func (s *Server) Start(port string) error {
	http.HandleFunc("/export", s.handleExport)
	http.HandleFunc("/health", s.handleHealth)

	s.logger.Infof("Starting API server on port %s", port)
	s.logger.Info("Available endpoints:")
	s.logger.Info("  POST /export - Build WooCommerce rows and images for product URLs")
	s.logger.Info("  GET  /health - Health check")

	return http.ListenAndServe(":"+port, nil)
}

func main() {
	// Get port from environment variable, default to 8080
	serverPort := "8080"
	if envPort := os.Getenv("API_PORT"); envPort != "" {
		serverPort = envPort
		fmt.Printf("Using port from environment variable API_PORT: %s\n", serverPort)
	}

	server := NewServer()

	log.Fatal(server.Start(serverPort))
}
