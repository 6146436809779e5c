// Copyright 2025 MMEC Campus Assistant Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package server exposes the chatbot over HTTP: the chat endpoints, login,
// history and audit-log management, college data, reports, uploads, and the
// admin surface.
package server

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mmec-labs/campus-assistant/internal/auth"
	"github.com/mmec-labs/campus-assistant/internal/chat"
	"github.com/mmec-labs/campus-assistant/internal/chatlog"
	"github.com/mmec-labs/campus-assistant/internal/config"
	"github.com/mmec-labs/campus-assistant/internal/health"
	"github.com/mmec-labs/campus-assistant/internal/history"
	"github.com/mmec-labs/campus-assistant/internal/report"
	"github.com/mmec-labs/campus-assistant/internal/settings"
)

// Server bundles the collaborators behind the HTTP handlers. All shared
// state lives in the collaborators, each internally synchronized; handlers
// themselves are stateless.
type Server struct {
	cfg      *config.Config
	logger   *zap.Logger
	pipeline *chat.Pipeline
	store    history.Store
	audit    *chatlog.Log
	settings *settings.Store
	users    *auth.UserStore
	sessions *auth.SessionManager
	reports  *report.Generator
	health   *health.Manager
}

// New assembles a server from its collaborators.
func New(
	cfg *config.Config,
	pipeline *chat.Pipeline,
	store history.Store,
	audit *chatlog.Log,
	settingsStore *settings.Store,
	users *auth.UserStore,
	sessions *auth.SessionManager,
	reports *report.Generator,
	healthManager *health.Manager,
	logger *zap.Logger,
) *Server {
	return &Server{
		cfg:      cfg,
		logger:   logger,
		pipeline: pipeline,
		store:    store,
		audit:    audit,
		settings: settingsStore,
		users:    users,
		sessions: sessions,
		reports:  reports,
		health:   healthManager,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.requestLogger())

	router.GET("/healthz", s.handleHealth)

	router.POST("/chat", s.handleChat)
	router.POST("/api/query", s.handleQuery)

	router.POST("/api/login", s.handleLogin)

	router.GET("/api/history", s.handleHistoryRead)
	router.POST("/api/history", s.handleHistoryAppend)
	router.DELETE("/api/history", s.handleHistoryClear)

	router.GET("/api/logs", s.handleLogsList)
	router.POST("/api/logs", s.handleLogsAppend)
	router.DELETE("/api/logs", s.requireAdmin(), s.handleLogsClear)

	router.GET("/api/college_info", s.handleCollegeInfo)
	router.GET("/api/class_strengths", s.handleClassStrengths)
	router.GET("/api/reports/class_strengths", s.handleClassStrengthsReport)

	router.POST("/upload", s.handleUpload)
	admin := router.Group("/api/admin", s.requireAdmin())
	admin.POST("/toggle_ai", s.handleToggleAI)
	admin.GET("/upload", s.handleUploadInfo)
	admin.POST("/upload", s.handleUpload)

	s.registerStatic(router)
	return router
}

// registerStatic serves the client page when a static directory exists.
func (s *Server) registerStatic(router *gin.Engine) {
	dir := s.cfg.Server.StaticDir
	if dir == "" {
		return
	}
	if _, err := os.Stat(dir); err != nil {
		s.logger.Info("static directory missing, client page disabled", zap.String("dir", dir))
		return
	}

	router.Static("/static", dir)
	index := filepath.Join(dir, "index.html")
	if _, err := os.Stat(index); err == nil {
		router.GET("/", func(c *gin.Context) {
			c.File(index)
		})
	}
}

// requestLogger emits one structured line per request.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request handled",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	resp := s.health.Check(c.Request.Context())
	status := http.StatusOK
	if resp.Status != health.StatusHealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}
