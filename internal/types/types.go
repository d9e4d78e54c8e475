package types

import "time"

// PersonalDetails represents the contact block of a parsed resume
type PersonalDetails struct {
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Address      string `json:"address,omitempty"`
	LinkedinURL  string `json:"linkedinUrl,omitempty"`
	GithubURL    string `json:"githubUrl,omitempty"`
	PortfolioURL string `json:"portfolioUrl,omitempty"`
	Summary      string `json:"summary,omitempty"`
}

// WorkExperience represents one position in a resume
type WorkExperience struct {
	JobTitle     string `json:"jobTitle,omitempty"`
	CompanyName  string `json:"companyName,omitempty"`
	Location     string `json:"location,omitempty"`
	StartDate    string `json:"startDate,omitempty"`
	EndDate      string `json:"endDate,omitempty"`
	IsCurrentJob *bool  `json:"currentJob,omitempty"`
	Description  string `json:"description,omitempty"`
}

// Education represents one education entry
type Education struct {
	InstitutionName string `json:"institutionName,omitempty"`
	Degree          string `json:"degree,omitempty"`
	FieldOfStudy    string `json:"fieldOfStudy,omitempty"`
	StartDate       string `json:"startDate,omitempty"`
	EndDate         string `json:"endDate,omitempty"`
	Grade           string `json:"grade,omitempty"`
	Description     string `json:"description,omitempty"`
}

// Skill represents a single skill and its level
type Skill struct {
	SkillName        string `json:"skillName"`
	ProficiencyLevel string `json:"proficiencyLevel,omitempty"`
}

// Project represents a project section entry
type Project struct {
	Name         string   `json:"name,omitempty"`
	TechStack    string   `json:"techStack,omitempty"`
	Date         string   `json:"date,omitempty"`
	Achievements []string `json:"achievements,omitempty"`
}

// Certificate represents a certification entry
type Certificate struct {
	Name        string `json:"name,omitempty"`
	Date        string `json:"date,omitempty"`
	Institution string `json:"institution,omitempty"`
	URL         string `json:"url,omitempty"`
}

// ResumeRecord represents one uploaded document as returned by the backend.
// The list endpoint reports the name as fileName, the detail endpoint as originalFilename.
type ResumeRecord struct {
	ID               string           `json:"id"`
	OriginalFilename string           `json:"originalFilename,omitempty"`
	FileName         string           `json:"fileName,omitempty"`
	FileSize         int64            `json:"fileSize"`
	MimeType         string           `json:"mimeType"`
	UploadDate       string           `json:"uploadDate,omitempty"`
	ParsingStatus    string           `json:"parsingStatus,omitempty"`
	ResumeContent    string           `json:"resumeContent,omitempty"`
	LatexContent     string           `json:"latexContent,omitempty"`
	HTMLContent      string           `json:"htmlContent,omitempty"`
	PersonalDetails  *PersonalDetails `json:"personalDetails,omitempty"`
	WorkExperiences  []WorkExperience `json:"workExperiences,omitempty"`
	Educations       []Education      `json:"educations,omitempty"`
	Skills           []Skill          `json:"skills,omitempty"`
	Projects         []Project        `json:"projects,omitempty"`
	Certificates     []Certificate    `json:"certificates,omitempty"`
}

// DisplayName returns the best available file name for the record
func (r ResumeRecord) DisplayName() string {
	if r.OriginalFilename != "" {
		return r.OriginalFilename
	}
	return r.FileName
}

// HasFullContent reports whether the record carries extracted text or parsed sections
func (r ResumeRecord) HasFullContent() bool {
	return r.ResumeContent != "" ||
		r.HTMLContent != "" ||
		r.PersonalDetails != nil ||
		len(r.WorkExperiences) > 0 ||
		len(r.Educations) > 0 ||
		len(r.Skills) > 0 ||
		len(r.Projects) > 0 ||
		len(r.Certificates) > 0
}

// ResumeUpdate is the payload for saving edited resume sections
type ResumeUpdate struct {
	PersonalDetails PersonalDetails  `json:"personalDetails"`
	WorkExperiences []WorkExperience `json:"workExperiences,omitempty"`
	Educations      []Education      `json:"educations,omitempty"`
	Skills          []Skill          `json:"skills,omitempty"`
	Projects        []Project        `json:"projects,omitempty"`
	Certificates    []Certificate    `json:"certificates,omitempty"`
}

// ContentUpdate is the payload for replacing the rich content of a resume
type ContentUpdate struct {
	HTMLContent string `json:"htmlContent"`
}

// ContentUpdateResult is returned after saving rich content.
// JobID is set when the backend acknowledges that regeneration started.
type ContentUpdateResult struct {
	ID               string `json:"id,omitempty"`
	OriginalFilename string `json:"originalFilename,omitempty"`
	JobID            string `json:"jobId,omitempty"`
}

// AnalyzeRequest is the payload for a job match analysis
type AnalyzeRequest struct {
	ResumeID       string `json:"resumeId"`
	JobDescription string `json:"jobDescription"`
}

// TargetedChange is a section-specific improvement suggestion
type TargetedChange struct {
	Section    string `json:"section"`
	Suggestion string `json:"suggestion"`
}

// AnalysisResult represents the server-computed match analysis
type AnalysisResult struct {
	JobScore            int              `json:"jobScore"`
	MatchedKeywords     []string         `json:"matchedKeywords,omitempty"`
	MissingKeywords     []string         `json:"missingKeywords,omitempty"`
	TargetedChanges     []TargetedChange `json:"targetedChanges,omitempty"`
	OverallImprovements []string         `json:"overallImprovements,omitempty"`
}

// AnalysisRecord is one entry of the analysis history
type AnalysisRecord struct {
	AnalysisID     string `json:"analysisId"`
	ResumeID       string `json:"resumeId"`
	ResumeFilename string `json:"resumeFilename"`
	JobDescription string `json:"jobDescription"`
	JobScore       *int   `json:"jobScore,omitempty"`
	CreatedAt      string `json:"createdAt"`
}

// ResumeStatus reports the generation state of a resume artifact
type ResumeStatus struct {
	ID             string `json:"id"`
	ParsingStatus  string `json:"parsingStatus"`
	FailureMessage string `json:"failureMessage,omitempty"`
}

// Feedback represents a stored feedback entry
type Feedback struct {
	ID           string `json:"id,omitempty"`
	Username     string `json:"username,omitempty"`
	Rating       int    `json:"rating"`
	FeedbackText string `json:"feedbackText"`
	CreatedAt    string `json:"createdAt,omitempty"`
}

// FeedbackRequest is the payload for submitting feedback
type FeedbackRequest struct {
	Rating       int    `json:"rating"`
	FeedbackText string `json:"feedbackText"`
}

// Page is a slice of a paged listing
type Page[T any] struct {
	Content       []T   `json:"content"`
	Last          bool  `json:"last"`
	Number        int   `json:"number"`
	Size          int   `json:"size,omitempty"`
	TotalPages    int   `json:"totalPages,omitempty"`
	TotalElements int64 `json:"totalElements,omitempty"`
}

// Envelope is the standard response wrapper of the resume endpoints
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data"`
	Error   string `json:"error,omitempty"`
}

// LoginRequest holds login credentials
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned by the login endpoint
type LoginResponse struct {
	Token   string `json:"token"`
	Message string `json:"message,omitempty"`
}

// SignupRequest holds registration data
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

// SignupResponse is returned by the registration endpoint
type SignupResponse struct {
	Message string `json:"message"`
}

// UserData is the persisted user descriptor of an auth session
type UserData struct {
	Username string `json:"username"`
}

// AuthSession pairs the bearer token with the user it belongs to
type AuthSession struct {
	Token string   `json:"token"`
	User  UserData `json:"user"`
}

// IsAuthenticated reports whether a token is present
func (s AuthSession) IsAuthenticated() bool {
	return s.Token != ""
}

// SessionInfo describes the stored session for display
type SessionInfo struct {
	Username      string     `json:"username,omitempty"`
	Authenticated bool       `json:"authenticated"`
	Subject       string     `json:"subject,omitempty"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
}
