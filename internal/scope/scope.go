// Package scope provides the heuristic on-topic check consulted before the
// AI fallback: questions with no connection to the college are answered with
// a fixed policy message instead of being forwarded to a provider.
package scope

import (
	"strings"
)

// PolicyMessage is the fixed reply for off-topic questions.
const PolicyMessage = "I can help with questions about Maratha Mandal Engineering College (MMEC) only: " +
	"admissions, courses, fees, hostels, placements, and campus facilities."

// Gate holds the keyword tables driving the heuristic.
type Gate struct {
	collegeKeywords []string
	rejectedTopics  []string
}

// NewGate creates a gate with the default keyword tables.
func NewGate() *Gate {
	return &Gate{
		collegeKeywords: []string{
			"mmec", "college", "campus", "admission", "admissions", "course", "courses",
			"branch", "branches", "department", "fee", "fees", "tuition", "hostel",
			"placement", "placements", "faculty", "professor", "exam", "exams", "semester",
			"library", "lab", "scholarship", "syllabus", "vtu", "engineering", "degree",
			"b.e", "mba", "student", "students", "belagavi", "maratha mandal",
		},
		rejectedTopics: []string{
			"weather", "temperature", "forecast", "rain",
			"politics", "election", "government", "minister",
			"movie", "film", "celebrity", "cricket", "football", "ipl",
			"recipe", "cooking", "restaurant",
			"stock", "crypto", "bitcoin", "trading",
			"joke", "riddle", "song", "lyrics",
			"travel", "vacation", "flight", "hotel booking",
		},
	}
}

// OnTopic reports whether a normalized message looks like a college
// question. A message naming a rejected topic is off-topic unless it also
// names a college keyword; everything else gets the benefit of the doubt.
func (g *Gate) OnTopic(message string) bool {
	rejected := false
	for _, topic := range g.rejectedTopics {
		if strings.Contains(message, topic) {
			rejected = true
			break
		}
	}
	if !rejected {
		return true
	}

	for _, kw := range g.collegeKeywords {
		if strings.Contains(message, kw) {
			return true
		}
	}
	return false
}
