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

// Package health provides the liveness endpoint payload.
package health

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	// StatusHealthy represents a passing service.
	StatusHealthy = "healthy"
	// StatusDegraded represents a service with a failing dependency.
	StatusDegraded = "degraded"
	// DefaultTimeout bounds each dependency check.
	DefaultTimeout = 5 * time.Second
)

// CheckResult is one dependency's health.
type CheckResult struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Checker probes one dependency.
type Checker func(ctx context.Context) CheckResult

// Response is the health endpoint payload.
type Response struct {
	Status       string                 `json:"status"`
	Service      string                 `json:"service"`
	Version      string                 `json:"version"`
	Uptime       string                 `json:"uptime"`
	Dependencies map[string]CheckResult `json:"dependencies,omitempty"`
	Timestamp    time.Time              `json:"timestamp"`
}

// Manager runs the registered dependency checks.
type Manager struct {
	service   string
	version   string
	startTime time.Time
	checkers  map[string]Checker
	logger    *zap.Logger
}

// NewManager creates a health manager.
func NewManager(service, version string, logger *zap.Logger) *Manager {
	return &Manager{
		service:   service,
		version:   version,
		startTime: time.Now(),
		checkers:  make(map[string]Checker),
		logger:    logger,
	}
}

// AddChecker registers a dependency check.
func (m *Manager) AddChecker(name string, checker Checker) {
	m.checkers[name] = checker
}

// Check runs all checks and aggregates the result. Any failing dependency
// degrades the service but keeps it alive.
func (m *Manager) Check(ctx context.Context) Response {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	status := StatusHealthy
	deps := make(map[string]CheckResult, len(m.checkers))
	for name, checker := range m.checkers {
		result := checker(ctx)
		deps[name] = result
		if result.Status != StatusHealthy {
			status = StatusDegraded
			m.logger.Warn("dependency check failed",
				zap.String("dependency", name),
				zap.String("error", result.Error),
			)
		}
	}

	return Response{
		Status:       status,
		Service:      m.service,
		Version:      m.version,
		Uptime:       time.Since(m.startTime).Round(time.Second).String(),
		Dependencies: deps,
		Timestamp:    time.Now(),
	}
}
