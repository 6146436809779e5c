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

package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mmec-labs/campus-assistant/internal/auth"
	"github.com/mmec-labs/campus-assistant/internal/chatlog"
	"github.com/mmec-labs/campus-assistant/internal/history"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// chatRequest is the body for both chat endpoints. User is optional; a
// valid session token wins over the body value.
type chatRequest struct {
	Message string `json:"message"`
	Role    string `json:"role"`
	User    string `json:"user"`
}

// handleChat serves the legacy /chat endpoint: the answer is returned under
// both "response" and "answer" so older client pages keep working.
func (s *Server) handleChat(c *gin.Context) {
	req, ok := s.bindChat(c)
	if !ok {
		return
	}

	answer := s.pipeline.Handle(c.Request.Context(), req.User, req.Message, req.Role)
	c.JSON(http.StatusOK, gin.H{
		"response": answer.Text,
		"answer":   answer.Text,
		"source":   answer.Source,
	})
}

// handleQuery serves /api/query, the structured variant.
func (s *Server) handleQuery(c *gin.Context) {
	req, ok := s.bindChat(c)
	if !ok {
		return
	}

	answer := s.pipeline.Handle(c.Request.Context(), req.User, req.Message, req.Role)
	c.JSON(http.StatusOK, gin.H{
		"answer": answer.Text,
		"source": answer.Source,
	})
}

func (s *Server) bindChat(c *gin.Context) (chatRequest, bool) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return req, false
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return req, false
	}

	// A logged-in caller's identity comes from the session, not the body.
	if sess, ok := s.resolveSession(c); ok {
		req.User = sess.Username
		if req.Role == "" {
			req.Role = sess.Role
		}
	}
	return req, true
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "username and password are required"})
		return
	}

	role, err := s.users.Verify(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid username or password"})
			return
		}
		s.logger.Error("login verification failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "login is unavailable right now"})
		return
	}

	token := s.sessions.Create(req.Username, role)
	c.JSON(http.StatusOK, gin.H{"ok": true, "role": role, "token": token})
}

func (s *Server) handleHistoryRead(c *gin.Context) {
	user := c.Query("user")
	if user == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user is required"})
		return
	}

	page := queryInt(c, "page", 1)
	size := queryInt(c, "size", defaultPageSize)
	if size > maxPageSize {
		size = maxPageSize
	}

	items, err := s.store.Read(user, page, size)
	if err != nil {
		s.logger.Error("failed to read history", zap.String("user", user), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not read history"})
		return
	}

	resp := gin.H{"items": items}
	if total, ok := s.store.Total(user); ok {
		resp["total"] = total
	}
	c.JSON(http.StatusOK, resp)
}

type historyAppendRequest struct {
	User string `json:"user"`
	From string `json:"from"`
	Text string `json:"text"`
	TS   string `json:"ts"`
}

func (s *Server) handleHistoryAppend(c *gin.Context) {
	var req historyAppendRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.User == "" || req.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user and text are required"})
		return
	}
	if req.From != history.SenderUser && req.From != history.SenderBot {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be 'user' or 'bot'"})
		return
	}

	item := history.Item{From: req.From, Text: req.Text, TS: req.TS}
	if err := s.store.Append(req.User, item); err != nil {
		s.logger.Error("failed to append history", zap.String("user", req.User), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type historyClearRequest struct {
	User string `json:"user"`
}

func (s *Server) handleHistoryClear(c *gin.Context) {
	var req historyClearRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.User == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user is required"})
		return
	}

	if err := s.store.Clear(req.User); err != nil {
		s.logger.Error("failed to clear history", zap.String("user", req.User), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not clear history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleLogsList(c *gin.Context) {
	limit := queryInt(c, "limit", 0)
	entries, err := s.audit.List(limit)
	if err != nil {
		s.logger.Error("failed to list chat logs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not read logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": entries})
}

func (s *Server) handleLogsAppend(c *gin.Context) {
	var entry chatlog.Entry
	if err := c.ShouldBindJSON(&entry); err != nil || entry.User == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user is required"})
		return
	}

	if err := s.audit.Append(entry); err != nil {
		s.logger.Error("failed to append chat log", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save log entry"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleLogsClear(c *gin.Context) {
	if err := s.audit.Clear(); err != nil {
		s.logger.Error("failed to clear chat logs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not clear logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleCollegeInfo(c *gin.Context) {
	c.JSON(http.StatusOK, s.reports.CollegeInfo())
}

func (s *Server) handleClassStrengths(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"class_strengths": s.reports.ClassStrengths()})
}

// handleClassStrengthsReport returns the PDF, degrading to the JSON payload
// when rendering fails.
func (s *Server) handleClassStrengthsReport(c *gin.Context) {
	data, err := s.reports.ClassStrengthsPDF()
	if err != nil {
		s.logger.Warn("PDF rendering failed, serving JSON fallback", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"class_strengths": s.reports.ClassStrengths()})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="class_strengths.pdf"`)
	c.Data(http.StatusOK, "application/pdf", data)
}

func (s *Server) handleToggleAI(c *gin.Context) {
	value, err := s.settings.Toggle()
	if err != nil {
		s.logger.Error("failed to toggle external queries", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update setting"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "allow_external_queries": value})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
