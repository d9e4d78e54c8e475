package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"resumetracker/internal/types"
	"resumetracker/internal/utils"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// GlobalRegistry is the registry used by the CLI
var GlobalRegistry = NewFormatterRegistry()

// StrongMatchScore is the lowest score highlighted as a strong match
const StrongMatchScore = 76

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	strongScoreStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("2"))

	weakScoreStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("3"))
)

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "AnalysisResult", &AnalysisTextFormatter{})
	registry.RegisterFormatter("markdown", "AnalysisResult", &AnalysisMarkdownFormatter{})
	registry.RegisterFormatter("text", "ResumeList", &ResumeListTextFormatter{})
	registry.RegisterFormatter("markdown", "ResumeList", &ResumeListMarkdownFormatter{})
	registry.RegisterFormatter("text", "ResumeRecord", &ResumeTextFormatter{})
	registry.RegisterFormatter("markdown", "ResumeRecord", &ResumeMarkdownFormatter{})
	registry.RegisterFormatter("text", "AnalysisHistory", &HistoryTextFormatter{})
	registry.RegisterFormatter("markdown", "AnalysisHistory", &HistoryMarkdownFormatter{})
	registry.RegisterFormatter("text", "FeedbackPage", &FeedbackTextFormatter{})
	registry.RegisterFormatter("markdown", "FeedbackPage", &FeedbackMarkdownFormatter{})
	registry.RegisterFormatter("text", "SessionInfo", &SessionTextFormatter{})
	registry.RegisterFormatter("text", "ResumeStatus", &StatusTextFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	// text and markdown fall back to JSON for types without a renderer
	if format == "text" || format == "markdown" {
		return fr.formatters["json"]["any"].Format(data)
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.AnalysisResult:
		return "AnalysisResult"
	case []types.ResumeRecord:
		return "ResumeList"
	case types.ResumeRecord:
		return "ResumeRecord"
	case []types.AnalysisRecord:
		return "AnalysisHistory"
	case types.Page[types.Feedback]:
		return "FeedbackPage"
	case types.SessionInfo:
		return "SessionInfo"
	case types.ResumeStatus:
		return "ResumeStatus"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

func renderScore(score int) string {
	text := fmt.Sprintf("%d/100", score)
	if score >= StrongMatchScore {
		return strongScoreStyle.Render(text)
	}
	return weakScoreStyle.Render(text)
}

func writeList(output *strings.Builder, items []string, prefix string) {
	for _, item := range items {
		output.WriteString(prefix)
		output.WriteString(item)
		output.WriteString("\n")
	}
}

// AnalysisTextFormatter handles text formatting for analysis results
type AnalysisTextFormatter struct{}

func (atf *AnalysisTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.AnalysisResult)
	if !ok {
		return "", fmt.Errorf("expected AnalysisResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString(titleStyle.Render("=== JOB MATCH ANALYSIS ==="))
	output.WriteString("\n\n")
	output.WriteString(fmt.Sprintf("%s %s\n\n", labelStyle.Render("Job Score:"), renderScore(result.JobScore)))

	output.WriteString(labelStyle.Render("Matched Keywords:"))
	output.WriteString("\n")
	if len(result.MatchedKeywords) == 0 {
		output.WriteString(mutedStyle.Render("  none"))
		output.WriteString("\n")
	}
	writeList(&output, result.MatchedKeywords, "  + ")
	output.WriteString("\n")

	output.WriteString(labelStyle.Render("Missing Keywords:"))
	output.WriteString("\n")
	if len(result.MissingKeywords) == 0 {
		output.WriteString(mutedStyle.Render("  none"))
		output.WriteString("\n")
	}
	writeList(&output, result.MissingKeywords, "  - ")
	output.WriteString("\n")

	if len(result.TargetedChanges) > 0 {
		output.WriteString(titleStyle.Render("=== TARGETED CHANGES ==="))
		output.WriteString("\n\n")
		for i, change := range result.TargetedChanges {
			output.WriteString(fmt.Sprintf("%d. %s\n", i+1, labelStyle.Render(change.Section)))
			output.WriteString("   ")
			output.WriteString(change.Suggestion)
			output.WriteString("\n\n")
		}
	}

	if len(result.OverallImprovements) > 0 {
		output.WriteString(titleStyle.Render("=== OVERALL IMPROVEMENTS ==="))
		output.WriteString("\n\n")
		writeList(&output, result.OverallImprovements, "• ")
	}

	return output.String(), nil
}

func (atf *AnalysisTextFormatter) SupportedType() string {
	return "AnalysisResult"
}

// AnalysisMarkdownFormatter handles markdown formatting for analysis results
type AnalysisMarkdownFormatter struct{}

func (amf *AnalysisMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.AnalysisResult)
	if !ok {
		return "", fmt.Errorf("expected AnalysisResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Job Match Analysis\n\n")
	output.WriteString(fmt.Sprintf("**Job Score:** %d/100\n\n", result.JobScore))

	output.WriteString("## Matched Keywords\n\n")
	writeList(&output, result.MatchedKeywords, "- ")
	if len(result.MatchedKeywords) == 0 {
		output.WriteString("_None_\n")
	}
	output.WriteString("\n## Missing Keywords\n\n")
	writeList(&output, result.MissingKeywords, "- ")
	if len(result.MissingKeywords) == 0 {
		output.WriteString("_None_\n")
	}

	if len(result.TargetedChanges) > 0 {
		output.WriteString("\n## Targeted Changes\n\n")
		for _, change := range result.TargetedChanges {
			output.WriteString(fmt.Sprintf("### %s\n\n%s\n\n", change.Section, change.Suggestion))
		}
	}

	if len(result.OverallImprovements) > 0 {
		output.WriteString("\n## Overall Improvements\n\n")
		writeList(&output, result.OverallImprovements, "- ")
	}

	return output.String(), nil
}

func (amf *AnalysisMarkdownFormatter) SupportedType() string {
	return "AnalysisResult"
}

// ResumeListTextFormatter renders the resume list as a table
type ResumeListTextFormatter struct{}

func (rlf *ResumeListTextFormatter) Format(data any) (string, error) {
	resumes, ok := data.([]types.ResumeRecord)
	if !ok {
		return "", fmt.Errorf("expected []ResumeRecord, got %T", data)
	}

	var output strings.Builder
	output.WriteString(titleStyle.Render(fmt.Sprintf("Your Resumes (%d)", len(resumes))))
	output.WriteString("\n\n")
	if len(resumes) == 0 {
		output.WriteString("No resumes uploaded yet.\n")
		return output.String(), nil
	}

	for _, r := range resumes {
		output.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("•"), r.DisplayName()))
		output.WriteString(fmt.Sprintf("   %s %s\n", labelStyle.Render("ID:"), r.ID))
		output.WriteString(fmt.Sprintf("   %s %s\n", labelStyle.Render("Size:"), utils.FormatFileSize(r.FileSize)))
		if r.UploadDate != "" {
			output.WriteString(fmt.Sprintf("   %s %s\n", labelStyle.Render("Uploaded:"), r.UploadDate))
		}
		if r.ParsingStatus != "" {
			output.WriteString(fmt.Sprintf("   %s %s\n", labelStyle.Render("Status:"), r.ParsingStatus))
		}
	}
	return output.String(), nil
}

func (rlf *ResumeListTextFormatter) SupportedType() string {
	return "ResumeList"
}

// ResumeListMarkdownFormatter renders the resume list as a markdown table
type ResumeListMarkdownFormatter struct{}

func (rlm *ResumeListMarkdownFormatter) Format(data any) (string, error) {
	resumes, ok := data.([]types.ResumeRecord)
	if !ok {
		return "", fmt.Errorf("expected []ResumeRecord, got %T", data)
	}

	var output strings.Builder
	output.WriteString("# Resumes\n\n")
	output.WriteString("| ID | File | Size | Uploaded |\n")
	output.WriteString("|---|---|---|---|\n")
	for _, r := range resumes {
		output.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
			r.ID, r.DisplayName(), utils.FormatFileSize(r.FileSize), r.UploadDate))
	}
	return output.String(), nil
}

func (rlm *ResumeListMarkdownFormatter) SupportedType() string {
	return "ResumeList"
}

// ResumeTextFormatter renders one resume with its parsed sections
type ResumeTextFormatter struct{}

func (rtf *ResumeTextFormatter) Format(data any) (string, error) {
	r, ok := data.(types.ResumeRecord)
	if !ok {
		return "", fmt.Errorf("expected ResumeRecord, got %T", data)
	}

	var output strings.Builder
	output.WriteString(titleStyle.Render(r.DisplayName()))
	output.WriteString("\n\n")
	output.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("ID:"), r.ID))
	output.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Type:"), r.MimeType))
	output.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Size:"), utils.FormatFileSize(r.FileSize)))

	if p := r.PersonalDetails; p != nil {
		output.WriteString("\n")
		output.WriteString(titleStyle.Render("=== PERSONAL DETAILS ==="))
		output.WriteString("\n")
		for _, field := range [][2]string{
			{"Name", p.Name}, {"Email", p.Email}, {"Phone", p.Phone}, {"Address", p.Address},
			{"LinkedIn", p.LinkedinURL}, {"GitHub", p.GithubURL}, {"Portfolio", p.PortfolioURL},
		} {
			if field[1] != "" {
				output.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render(field[0]+":"), field[1]))
			}
		}
		if p.Summary != "" {
			output.WriteString("\n")
			output.WriteString(p.Summary)
			output.WriteString("\n")
		}
	}

	if len(r.WorkExperiences) > 0 {
		output.WriteString("\n")
		output.WriteString(titleStyle.Render("=== EXPERIENCE ==="))
		output.WriteString("\n")
		for _, w := range r.WorkExperiences {
			output.WriteString(fmt.Sprintf("%s, %s (%s)\n", labelStyle.Render(w.JobTitle), w.CompanyName, dateRange(w.StartDate, w.EndDate)))
			if w.Description != "" {
				output.WriteString("   ")
				output.WriteString(w.Description)
				output.WriteString("\n")
			}
		}
	}

	if len(r.Educations) > 0 {
		output.WriteString("\n")
		output.WriteString(titleStyle.Render("=== EDUCATION ==="))
		output.WriteString("\n")
		for _, e := range r.Educations {
			output.WriteString(fmt.Sprintf("%s, %s %s (%s)\n", labelStyle.Render(e.InstitutionName), e.Degree, e.FieldOfStudy, dateRange(e.StartDate, e.EndDate)))
		}
	}

	if len(r.Skills) > 0 {
		output.WriteString("\n")
		output.WriteString(titleStyle.Render("=== SKILLS ==="))
		output.WriteString("\n")
		names := make([]string, 0, len(r.Skills))
		for _, s := range r.Skills {
			names = append(names, s.SkillName)
		}
		output.WriteString(strings.Join(names, ", "))
		output.WriteString("\n")
	}

	if len(r.Projects) > 0 {
		output.WriteString("\n")
		output.WriteString(titleStyle.Render("=== PROJECTS ==="))
		output.WriteString("\n")
		for _, p := range r.Projects {
			output.WriteString(labelStyle.Render(p.Name))
			if p.TechStack != "" {
				output.WriteString(mutedStyle.Render(" [" + p.TechStack + "]"))
			}
			output.WriteString("\n")
			writeList(&output, p.Achievements, "   • ")
		}
	}

	if len(r.Certificates) > 0 {
		output.WriteString("\n")
		output.WriteString(titleStyle.Render("=== CERTIFICATES ==="))
		output.WriteString("\n")
		for _, c := range r.Certificates {
			output.WriteString(fmt.Sprintf("%s, %s %s\n", labelStyle.Render(c.Name), c.Institution, c.Date))
		}
	}

	if !r.HasFullContent() {
		output.WriteString("\n")
		output.WriteString(mutedStyle.Render("No parsed content available yet."))
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (rtf *ResumeTextFormatter) SupportedType() string {
	return "ResumeRecord"
}

// ResumeMarkdownFormatter renders one resume as markdown
type ResumeMarkdownFormatter struct{}

func (rmf *ResumeMarkdownFormatter) Format(data any) (string, error) {
	r, ok := data.(types.ResumeRecord)
	if !ok {
		return "", fmt.Errorf("expected ResumeRecord, got %T", data)
	}

	var output strings.Builder
	output.WriteString(fmt.Sprintf("# %s\n\n", r.DisplayName()))
	if p := r.PersonalDetails; p != nil {
		if p.Name != "" {
			output.WriteString(fmt.Sprintf("**%s**\n\n", p.Name))
		}
		if p.Summary != "" {
			output.WriteString(p.Summary + "\n\n")
		}
	}
	if len(r.WorkExperiences) > 0 {
		output.WriteString("## Experience\n\n")
		for _, w := range r.WorkExperiences {
			output.WriteString(fmt.Sprintf("### %s, %s\n\n_%s_\n\n", w.JobTitle, w.CompanyName, dateRange(w.StartDate, w.EndDate)))
			if w.Description != "" {
				output.WriteString(w.Description + "\n\n")
			}
		}
	}
	if len(r.Educations) > 0 {
		output.WriteString("## Education\n\n")
		for _, e := range r.Educations {
			output.WriteString(fmt.Sprintf("- **%s**, %s %s\n", e.InstitutionName, e.Degree, e.FieldOfStudy))
		}
		output.WriteString("\n")
	}
	if len(r.Skills) > 0 {
		output.WriteString("## Skills\n\n")
		for _, s := range r.Skills {
			output.WriteString("- " + s.SkillName + "\n")
		}
	}
	return output.String(), nil
}

func (rmf *ResumeMarkdownFormatter) SupportedType() string {
	return "ResumeRecord"
}

// HistoryTextFormatter renders past analyses
type HistoryTextFormatter struct{}

func (htf *HistoryTextFormatter) Format(data any) (string, error) {
	history, ok := data.([]types.AnalysisRecord)
	if !ok {
		return "", fmt.Errorf("expected []AnalysisRecord, got %T", data)
	}

	var output strings.Builder
	output.WriteString(titleStyle.Render("Analysis History"))
	output.WriteString("\n\n")
	if len(history) == 0 {
		output.WriteString("No analyses yet.\n")
		return output.String(), nil
	}

	for _, h := range history {
		score := mutedStyle.Render("n/a")
		if h.JobScore != nil {
			score = renderScore(*h.JobScore)
		}
		output.WriteString(fmt.Sprintf("%s %s  %s\n", labelStyle.Render("•"), h.ResumeFilename, score))
		output.WriteString(fmt.Sprintf("   %s %s\n", labelStyle.Render("Date:"), h.CreatedAt))
		output.WriteString(fmt.Sprintf("   %s %s\n", labelStyle.Render("Job:"), truncate(h.JobDescription, 100)))
	}
	return output.String(), nil
}

func (htf *HistoryTextFormatter) SupportedType() string {
	return "AnalysisHistory"
}

// HistoryMarkdownFormatter renders past analyses as a markdown table
type HistoryMarkdownFormatter struct{}

func (hmf *HistoryMarkdownFormatter) Format(data any) (string, error) {
	history, ok := data.([]types.AnalysisRecord)
	if !ok {
		return "", fmt.Errorf("expected []AnalysisRecord, got %T", data)
	}

	var output strings.Builder
	output.WriteString("# Analysis History\n\n")
	output.WriteString("| Date | Resume | Score | Job |\n")
	output.WriteString("|---|---|---|---|\n")
	for _, h := range history {
		score := "n/a"
		if h.JobScore != nil {
			score = fmt.Sprintf("%d", *h.JobScore)
		}
		output.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
			h.CreatedAt, h.ResumeFilename, score, strings.ReplaceAll(truncate(h.JobDescription, 60), "|", "\\|")))
	}
	return output.String(), nil
}

func (hmf *HistoryMarkdownFormatter) SupportedType() string {
	return "AnalysisHistory"
}

// FeedbackTextFormatter renders a feedback page
type FeedbackTextFormatter struct{}

func (ftf *FeedbackTextFormatter) Format(data any) (string, error) {
	page, ok := data.(types.Page[types.Feedback])
	if !ok {
		return "", fmt.Errorf("expected Page[Feedback], got %T", data)
	}

	var output strings.Builder
	output.WriteString(titleStyle.Render(fmt.Sprintf("Feedback (page %d)", page.Number+1)))
	output.WriteString("\n\n")
	for _, f := range page.Content {
		output.WriteString(fmt.Sprintf("%s %s  %s\n", labelStyle.Render(stars(f.Rating)), f.Username, mutedStyle.Render(f.CreatedAt)))
		if f.FeedbackText != "" {
			output.WriteString("   ")
			output.WriteString(f.FeedbackText)
			output.WriteString("\n")
		}
	}
	if !page.Last {
		output.WriteString(mutedStyle.Render(fmt.Sprintf("\nMore feedback available: --page %d", page.Number+1)))
		output.WriteString("\n")
	}
	return output.String(), nil
}

func (ftf *FeedbackTextFormatter) SupportedType() string {
	return "FeedbackPage"
}

// FeedbackMarkdownFormatter renders a feedback page as markdown
type FeedbackMarkdownFormatter struct{}

func (fmf *FeedbackMarkdownFormatter) Format(data any) (string, error) {
	page, ok := data.(types.Page[types.Feedback])
	if !ok {
		return "", fmt.Errorf("expected Page[Feedback], got %T", data)
	}

	var output strings.Builder
	output.WriteString("# Feedback\n\n")
	for _, f := range page.Content {
		output.WriteString(fmt.Sprintf("- **%d/5** %s: %s\n", f.Rating, f.Username, f.FeedbackText))
	}
	return output.String(), nil
}

func (fmf *FeedbackMarkdownFormatter) SupportedType() string {
	return "FeedbackPage"
}

// SessionTextFormatter renders the stored session
type SessionTextFormatter struct{}

func (stf *SessionTextFormatter) Format(data any) (string, error) {
	info, ok := data.(types.SessionInfo)
	if !ok {
		return "", fmt.Errorf("expected SessionInfo, got %T", data)
	}
	if !info.Authenticated {
		return mutedStyle.Render("Not logged in") + "\n", nil
	}

	var output strings.Builder
	output.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Logged in as:"), info.Username))
	if info.Subject != "" && info.Subject != info.Username {
		output.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Subject:"), info.Subject))
	}
	if info.ExpiresAt != nil {
		output.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Expires:"), info.ExpiresAt.Format("2006-01-02 15:04 MST")))
	}
	return output.String(), nil
}

func (stf *SessionTextFormatter) SupportedType() string {
	return "SessionInfo"
}

// StatusTextFormatter renders the parsing state of one resume
type StatusTextFormatter struct{}

func (stf *StatusTextFormatter) Format(data any) (string, error) {
	status, ok := data.(types.ResumeStatus)
	if !ok {
		return "", fmt.Errorf("expected ResumeStatus, got %T", data)
	}
	state := status.ParsingStatus
	if state == "" {
		state = "UNKNOWN"
	}

	var output strings.Builder
	output.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Resume:"), status.ID))
	output.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Status:"), state))
	if status.FailureMessage != "" {
		output.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Reason:"), weakScoreStyle.Render(status.FailureMessage)))
	}
	return output.String(), nil
}

func (stf *StatusTextFormatter) SupportedType() string {
	return "ResumeStatus"
}

func dateRange(start, end string) string {
	if end == "" {
		end = "Present"
	}
	if start == "" {
		return end
	}
	return start + " - " + end
}

func stars(rating int) string {
	rating = max(0, min(rating, 5))
	return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
