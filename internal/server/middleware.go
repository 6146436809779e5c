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
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mmec-labs/campus-assistant/internal/auth"
)

// sessionHeader carries the token issued by /api/login. A ?token= query
// parameter is accepted as a fallback for direct download links.
const sessionHeader = "X-Session-Token"

// resolveSession extracts and resolves the caller's session, if any.
func (s *Server) resolveSession(c *gin.Context) (auth.Session, bool) {
	token := c.GetHeader(sessionHeader)
	if token == "" {
		token = c.Query("token")
	}
	if token == "" {
		return auth.Session{}, false
	}
	return s.sessions.Resolve(token)
}

// requireAdmin rejects requests whose session does not resolve to an admin.
// A missing token and a non-admin session are both unauthorized; the error
// surface does not distinguish them.
func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := s.resolveSession(c)
		if !ok || sess.Role != auth.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}
