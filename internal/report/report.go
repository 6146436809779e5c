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

// Package report serves the structured college data and renders the class
// strengths PDF. Missing source files degrade to built-in data, never to an
// error.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"
)

// CollegeInfo is the structured college record served at /api/college_info.
type CollegeInfo struct {
	Name        string   `json:"name"`
	ShortName   string   `json:"short_name"`
	City        string   `json:"city"`
	Established int      `json:"established"`
	Affiliation string   `json:"affiliation"`
	Phone       string   `json:"phone"`
	Email       string   `json:"email"`
	Programs    []string `json:"programs"`
}

// ClassStrength is one program's enrollment row.
type ClassStrength struct {
	Program  string `json:"program"`
	Year     int    `json:"year"`
	Strength int    `json:"strength"`
}

// Generator loads college data from the knowledge directory, falling back
// to the embedded defaults.
type Generator struct {
	dir    string
	logger *zap.Logger
}

// NewGenerator creates a generator over the knowledge directory.
func NewGenerator(dir string, logger *zap.Logger) *Generator {
	return &Generator{dir: dir, logger: logger}
}

// CollegeInfo returns the college record.
func (g *Generator) CollegeInfo() CollegeInfo {
	var info CollegeInfo
	if g.loadJSON("college_info.json", &info) && info.Name != "" {
		return info
	}
	return defaultCollegeInfo()
}

// ClassStrengths returns the enrollment table.
func (g *Generator) ClassStrengths() []ClassStrength {
	var rows []ClassStrength
	if g.loadJSON("class_strengths.json", &rows) && len(rows) > 0 {
		return rows
	}
	return defaultClassStrengths()
}

// ClassStrengthsPDF renders the enrollment table as a PDF document.
func (g *Generator) ClassStrengthsPDF() ([]byte, error) {
	rows := g.ClassStrengths()
	info := g.CollegeInfo()

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, fmt.Sprintf("%s - Class Strengths", info.ShortName), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(90, 8, "Program", "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 8, "Year", "1", 0, "C", true, 0, "")
	pdf.CellFormat(40, 8, "Strength", "1", 1, "C", true, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	total := 0
	for _, row := range rows {
		pdf.CellFormat(90, 8, row.Program, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 8, fmt.Sprintf("%d", row.Year), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 8, fmt.Sprintf("%d", row.Strength), "1", 1, "C", false, 0, "")
		total += row.Strength
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(130, 8, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 8, fmt.Sprintf("%d", total), "1", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render class strengths PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// loadJSON fills out from a knowledge file, reporting success.
func (g *Generator) loadJSON(name string, out interface{}) bool {
	data, err := os.ReadFile(filepath.Join(g.dir, name))
	if err != nil {
		if !os.IsNotExist(err) {
			g.logger.Warn("failed to read report source", zap.String("file", name), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		g.logger.Warn("report source is malformed", zap.String("file", name), zap.Error(err))
		return false
	}
	return true
}

func defaultCollegeInfo() CollegeInfo {
	return CollegeInfo{
		Name:        "Maratha Mandal Engineering College",
		ShortName:   "MMEC",
		City:        "Belagavi",
		Established: 1984,
		Affiliation: "Visvesvaraya Technological University",
		Phone:       "+91-831-2498111",
		Email:       "info@mmec.edu.in",
		Programs:    []string{"CSE", "ECE", "Mechanical", "Civil", "MBA"},
	}
}

func defaultClassStrengths() []ClassStrength {
	return []ClassStrength{
		{Program: "Computer Science & Engineering", Year: 1, Strength: 120},
		{Program: "Electronics & Communication", Year: 1, Strength: 60},
		{Program: "Mechanical Engineering", Year: 1, Strength: 60},
		{Program: "Civil Engineering", Year: 1, Strength: 30},
	}
}
