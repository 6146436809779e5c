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
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// uploadTargets maps the accepted multipart field names to their fixed
// destination filenames under the static directory. Arbitrary field names
// are rejected so an upload can never place a file outside this set.
var uploadTargets = map[string]string{
	"logo":     "logo.png",
	"banner":   "banner.jpg",
	"brochure": "brochure.pdf",
}

// handleUpload replaces site assets in place. Each saved file is reported
// back with a cache-busting version suffix so clients refetch it.
func (s *Server) handleUpload(c *gin.Context) {
	dir := s.cfg.Server.StaticDir
	if dir == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "uploads are not configured"})
		return
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		s.logger.Error("failed to create upload directory", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store upload"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form is required"})
		return
	}

	saved := map[string]string{}
	version := time.Now().Unix()
	for field, dest := range uploadTargets {
		files := form.File[field]
		if len(files) == 0 {
			continue
		}

		path := filepath.Join(dir, dest)
		if err := c.SaveUploadedFile(files[0], path); err != nil {
			s.logger.Error("failed to save uploaded file",
				zap.String("field", field), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store upload"})
			return
		}
		saved[field] = fmt.Sprintf("/static/%s?v=%d", dest, version)
		s.logger.Info("site asset replaced", zap.String("field", field), zap.String("file", dest))
	}

	if len(saved) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no recognized upload fields"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "files": saved})
}

// handleUploadInfo reports the accepted fields and the current state of each
// target so the admin page can show what is already in place.
func (s *Server) handleUploadInfo(c *gin.Context) {
	dir := s.cfg.Server.StaticDir
	targets := []gin.H{}
	for field, dest := range uploadTargets {
		entry := gin.H{"field": field, "file": dest, "exists": false}
		if dir != "" {
			if info, err := os.Stat(filepath.Join(dir, dest)); err == nil {
				entry["exists"] = true
				entry["size"] = info.Size()
				entry["modified"] = info.ModTime().UTC().Format(time.RFC3339)
			}
		}
		targets = append(targets, entry)
	}
	c.JSON(http.StatusOK, gin.H{"targets": targets})
}
