// Package types holds the shared domain model for pageguard: documents,
// discrepancies, per-page analysis results, sessions, and audit log entries.
// It has no dependencies on the rest of the codebase so every layer can
// import it without cycles.
package types

import "time"

// Severity classifies a single discrepancy.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL" // wrong price, location, date, legal terms, wrong primary image
	SeverityMajor    Severity = "MAJOR"    // missing key facts, wrong contact info, mismatched imagery
	SeverityMinor    Severity = "MINOR"    // typos, tone, vague wording
)

// Valid reports whether s is one of the three known severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityMajor, SeverityMinor:
		return true
	}
	return false
}

// AnalysisStatus is the outcome of analyzing one target document.
type AnalysisStatus string

const (
	StatusCompliant    AnalysisStatus = "COMPLIANT"
	StatusNonCompliant AnalysisStatus = "NON_COMPLIANT"
	StatusError        AnalysisStatus = "ERROR"
)

// DocumentDescriptor identifies a document to analyze. At least one of URL
// or Content must be set by resolution time. Content always wins over URL:
// inline text is never re-fetched.
type DocumentDescriptor struct {
	ID         string `json:"id,omitempty" yaml:"id,omitempty"`
	Name       string `json:"name,omitempty" yaml:"name,omitempty"`
	URL        string `json:"url,omitempty" yaml:"url,omitempty"`
	Content    string `json:"content,omitempty" yaml:"content,omitempty"`
	Screenshot string `json:"screenshot,omitempty" yaml:"screenshot,omitempty"`
}

// HasSource reports whether the descriptor carries anything resolvable.
func (d DocumentDescriptor) HasSource() bool {
	return d.Content != "" || d.URL != ""
}

// Discrepancy is a single identified mismatch between reference and target.
// IDs are derived from the owning result id and the discrepancy's position,
// so identical provider output yields identical ids.
type Discrepancy struct {
	ID             string   `json:"id"`
	Field          string   `json:"field"`
	ReferenceValue string   `json:"referenceValue"`
	FoundValue     string   `json:"foundValue"`
	Severity       Severity `json:"severity"`
	Description    string   `json:"description"`
	Suggestion     string   `json:"suggestion"`
}

// PageAnalysis is the per-target result of one comparison.
//
// Invariants:
//   - Status == COMPLIANT iff Discrepancies is empty.
//   - Status == ERROR implies ComplianceScore == 0 and no discrepancies;
//     RawText then carries the diagnostic instead of page content.
type PageAnalysis struct {
	ID              string        `json:"id"`
	URL             string        `json:"url"`
	Timestamp       time.Time     `json:"timestamp"`
	Status          AnalysisStatus `json:"status"`
	ComplianceScore int           `json:"complianceScore"`
	Discrepancies   []Discrepancy `json:"discrepancies"`
	RawText         string        `json:"rawText,omitempty"`
	Screenshot      string        `json:"screenshot,omitempty"`
}

// CountBySeverity returns the number of discrepancies with the given severity.
func (p PageAnalysis) CountBySeverity(s Severity) int {
	n := 0
	for _, d := range p.Discrepancies {
		if d.Severity == s {
			n++
		}
	}
	return n
}

// AnalysisSession aggregates the results of one completed orchestration run.
// Immutable after creation except for deletion.
type AnalysisSession struct {
	ID           string         `json:"id"`
	UserID       string         `json:"userId"`
	ProjectName  string         `json:"projectName"`
	ReferenceURL string         `json:"referenceUrl"`
	Timestamp    time.Time      `json:"timestamp"`
	Results      []PageAnalysis `json:"results"`
}

// LogEntry is one append-only audit record.
type LogEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}

// Audit log actions.
const (
	ActionAnalysisRun = "ANALYSIS_RUN"
	ActionScrapeURL   = "SCRAPE_URL"
	ActionViewHistory = "VIEW_HISTORY"
	ActionLogin       = "LOGIN"
	ActionRegister    = "REGISTER"
	ActionExportCSV   = "EXPORT_CSV"
)

// User is an operator identity. There is no real authentication in the core;
// users exist so history and logs can be attributed and filtered by owner.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}
