package formatters

import (
	"encoding/json"
	"strings"
	"testing"

	"resumetracker/internal/types"
)

func sampleAnalysis() types.AnalysisResult {
	return types.AnalysisResult{
		JobScore:        82,
		MatchedKeywords: []string{"Go", "PostgreSQL"},
		MissingKeywords: []string{"Kubernetes"},
		TargetedChanges: []types.TargetedChange{
			{Section: "Experience", Suggestion: "Quantify the latency improvements"},
		},
		OverallImprovements: []string{"Add a summary"},
	}
}

func TestFormatRoutesByType(t *testing.T) {
	registry := NewFormatterRegistry()
	score := 64

	tests := []struct {
		name     string
		data     any
		format   string
		contains []string
	}{
		{"analysis text", sampleAnalysis(), "text", []string{"JOB MATCH ANALYSIS", "82/100", "Kubernetes", "Quantify the latency improvements"}},
		{"analysis markdown", sampleAnalysis(), "markdown", []string{"# Job Match Analysis", "**Job Score:** 82/100", "### Experience"}},
		{"resume list text", []types.ResumeRecord{{ID: "r1", FileName: "cv.pdf", FileSize: 2 << 20}}, "text", []string{"Your Resumes (1)", "cv.pdf", "2 MB"}},
		{"resume list markdown", []types.ResumeRecord{{ID: "r1", OriginalFilename: "cv.pdf", FileSize: 1536}}, "markdown", []string{"| r1 | cv.pdf | 1.5 KB |"}},
		{"resume detail", types.ResumeRecord{ID: "r1", OriginalFilename: "cv.pdf", Skills: []types.Skill{{SkillName: "Go"}, {SkillName: "SQL"}}}, "text", []string{"SKILLS", "Go, SQL"}},
		{"history", []types.AnalysisRecord{{ResumeFilename: "cv.pdf", JobScore: &score, JobDescription: "Backend role"}}, "markdown", []string{"| cv.pdf | 64 | Backend role |"}},
		{"session", types.SessionInfo{Username: "ana", Authenticated: true}, "text", []string{"Logged in as:", "ana"}},
		{"signed out", types.SessionInfo{}, "text", []string{"Not logged in"}},
		{"status", types.ResumeStatus{ID: "r1", ParsingStatus: "FAILED", FailureMessage: "Unreadable PDF"}, "text", []string{"r1", "FAILED", "Unreadable PDF"}},
		{"status unknown", types.ResumeStatus{ID: "r2"}, "text", []string{"UNKNOWN"}},
		{"feedback", types.Page[types.Feedback]{Content: []types.Feedback{{Rating: 4, Username: "ana", FeedbackText: "Useful"}}}, "text", []string{"★★★★☆", "Useful", "More feedback available"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := registry.Format(tt.data, tt.format)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(output, want) {
					t.Errorf("output missing %q:\n%s", want, output)
				}
			}
		})
	}
}

func TestFormatJSON(t *testing.T) {
	output, err := NewFormatterRegistry().Format(sampleAnalysis(), "json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded types.AnalysisResult
	if err := json.Unmarshal([]byte(output), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded.JobScore != 82 {
		t.Errorf("JobScore = %d, want 82", decoded.JobScore)
	}
}

func TestFormatFallbacks(t *testing.T) {
	registry := NewFormatterRegistry()

	output, err := registry.Format(types.SignupResponse{Message: "ok"}, "text")
	if err != nil {
		t.Fatalf("text should fall back to JSON: %v", err)
	}
	if !strings.Contains(output, `"message": "ok"`) {
		t.Errorf("unexpected fallback output: %s", output)
	}

	if _, err := registry.Format(sampleAnalysis(), "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate kept = %q", got)
	}
	if got := truncate("a  b\n c", 10); got != "a b c" {
		t.Errorf("whitespace not collapsed: %q", got)
	}
	if got := truncate(strings.Repeat("x", 20), 10); len([]rune(got)) != 10 {
		t.Errorf("truncate length = %d", len([]rune(got)))
	}
}
