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

// Package faq provides the static FAQ table and the message matching
// strategies used as the first tier of the answer pipeline. Entries are
// immutable and loaded once at process start.
package faq

import (
	"strings"
)

// GreetingResponse is the fixed reply for any message containing a greeting
// token. Greetings bypass entry resolution entirely.
const GreetingResponse = "Hello! I'm the MMEC campus assistant. " +
	"Ask me about admissions, courses, fees, hostels, placements, or campus timings."

// greetingTokens are matched against whole word tokens, not substrings, so
// that words like "this" or "hinge" never trip the greeting path.
var greetingTokens = []string{
	"hi", "hello", "hey", "namaste", "greetings", "hii", "hiii",
}

// Entry represents one canned FAQ response. Triggers serve the substring
// strategy, Keywords the similarity strategy. Triggers are never empty.
type Entry struct {
	Triggers []string
	Keywords []string
	Answer   string
}

// DefaultEntries returns the static MMEC FAQ table. Table order matters for
// the substring strategy: the first matching entry wins.
func DefaultEntries() []Entry {
	return []Entry{
		{
			Triggers: []string{"fees", "fee structure", "tuition", "how much does it cost"},
			Keywords: []string{"fees", "fee", "tuition", "cost"},
			Answer: "The annual tuition fee for B.E. programmes at MMEC is approximately ₹85,000, " +
				"with an additional one-time admission fee of ₹10,000. Hostel and mess charges are " +
				"around ₹60,000 per year. Exact figures for the current academic year are published " +
				"by the college office.",
		},
		{
			Triggers: []string{"admission", "apply", "eligibility", "how to join"},
			Keywords: []string{"admission", "admissions", "apply", "eligibility"},
			Answer: "Admissions to MMEC are through KCET and COMEDK counselling, with a management " +
				"quota for direct admission. Eligibility is 10+2 with Physics and Mathematics and at " +
				"least 45% aggregate. The admission office can be reached through the contact page.",
		},
		{
			Triggers: []string{"courses", "branches", "departments", "programs offered"},
			Keywords: []string{"courses", "course", "branches", "branch", "departments"},
			Answer: "MMEC offers B.E. programmes in Computer Science, Electronics & Communication, " +
				"Mechanical, and Civil Engineering, along with an MBA programme. All programmes are " +
				"affiliated to VTU, Belagavi.",
		},
		{
			Triggers: []string{"hostel", "accommodation", "rooms", "mess"},
			Keywords: []string{"hostel", "hostels", "accommodation", "mess"},
			Answer: "MMEC has separate hostels for boys and girls within the campus, with mess " +
				"facilities, Wi-Fi, and 24x7 security. Allotment is on a first-come basis after " +
				"admission is confirmed.",
		},
		{
			Triggers: []string{"placement", "placements", "jobs", "companies visiting"},
			Keywords: []string{"placement", "placements", "jobs", "recruiters"},
			Answer: "The training and placement cell at MMEC works with recruiters such as Infosys, " +
				"Wipro, and TCS. Placement preparation, aptitude training, and mock interviews begin " +
				"in the third year.",
		},
		{
			Triggers: []string{"library", "books", "reading room"},
			Keywords: []string{"library", "books"},
			Answer: "The central library at MMEC holds over 30,000 volumes, subscribes to national " +
				"and international journals, and is open from 9 AM to 8 PM on working days.",
		},
		{
			Triggers: []string{"timings", "college hours", "working hours", "when does college start"},
			Keywords: []string{"timings", "timing", "hours", "schedule"},
			Answer: "College hours at MMEC are 9 AM to 4:30 PM, Monday through Saturday. " +
				"Second and fourth Saturdays are holidays.",
		},
		{
			Triggers: []string{"contact", "phone", "email", "address", "where is the college"},
			Keywords: []string{"contact", "phone", "email", "address", "location"},
			Answer: "MMEC is located in Belagavi, Karnataka. You can reach the college office at " +
				"+91-831-2498111 or info@mmec.edu.in. The admission office is open 9 AM to 5 PM " +
				"on working days.",
		},
		{
			Triggers: []string{"about", "about college", "about mmec", "maratha mandal"},
			Keywords: []string{"about", "mmec", "college"},
			Answer: "Maratha Mandal Engineering College (MMEC), Belagavi, was established in 1984 " +
				"and is affiliated to Visvesvaraya Technological University. The college is known " +
				"for its engineering programmes and an active campus community.",
		},
	}
}

// Normalize lowercases and trims a raw user message. All matching operates
// on normalized text.
func Normalize(message string) string {
	return strings.ToLower(strings.TrimSpace(message))
}

// Tokenize splits a normalized message into word tokens, stripping
// surrounding punctuation from each token.
func Tokenize(message string) []string {
	fields := strings.Fields(message)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		t := strings.Trim(f, ".,!?;:'\"()")
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// IsGreeting reports whether a normalized message contains a greeting token.
func IsGreeting(message string) bool {
	for _, tok := range Tokenize(message) {
		for _, g := range greetingTokens {
			if tok == g {
				return true
			}
		}
	}
	return false
}
