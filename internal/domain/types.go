// Package domain holds the entity types that flow through the screening
// pipeline: projects, assets, résumés, chunks, job descriptions, usage
// logs, and the transient result shapes produced at query time.
package domain

import (
	"time"

	"github.com/lynxscreen/screenpipe/pkg/kv"
)

// ExtractionMethod records how a Résumé's full_content was produced.
type ExtractionMethod string

const (
	ExtractionLocal       ExtractionMethod = "local"
	ExtractionLLMFallback ExtractionMethod = "llm_fallback"
)

// ActionType tags every Usage Log row with the kind of generation-service
// call that produced it.
type ActionType string

const (
	ActionScreening            ActionType = "screening"
	ActionCVExtractionFallback ActionType = "cv_extraction_fallback"
	ActionCVStructuringBatch   ActionType = "cv_structuring_batch"
	ActionJDExtraction         ActionType = "jd_extraction"
	ActionGeneration           ActionType = "generation"
)

// Project is the root scope for every other entity. It is identified by a
// human-chosen, alphanumeric project_id and is created on first reference.
type Project struct {
	ID        string
	CreatedAt time.Time
}

// Asset is a file uploaded into a project. Name is project-scoped unique:
// "{project_id}_{uuid}.{ext}".
type Asset struct {
	ProjectID  string
	Name       string
	MimeType   string
	SizeBytes  int64
	StorageURL string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ParsedData is the structured record produced by extraction/structuring.
// Keys are optional: summary, work_history, education, skills,
// certifications, projects, languages.
type ParsedData = kv.KSVA

// Resume is a processed candidate record.
type Resume struct {
	ProjectID        string
	FileID           string // the owning Asset's Name
	CandidateName    string
	ContactInfo      kv.KSVA
	FullContent      string
	ParsedData       ParsedData
	ExtractionMethod ExtractionMethod
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Chunk is a unit of retrieval.
type Chunk struct {
	ProjectID  string
	Content    string
	Metadata   kv.KSVA // always carries file_id, structured chunks also carry section_type
	ChunkOrder int     // >= 1, monotone within a résumé
}

// FileID is a convenience accessor over the required metadata key.
func (c Chunk) FileID() string {
	return cast(c.Metadata.Get("file_id"))
}

func cast(v any) string {
	s, _ := v.(string)
	return s
}

// JobDescription is the single job description bound to a project.
type JobDescription struct {
	ProjectID    string
	Title        string
	Description  string
	Prompt       string
	Weights      map[string]float64
	CustomRubric string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UsageLog is an append-only record of a generation-service call.
type UsageLog struct {
	ProjectID        string
	FileID           string // optional; empty when not file-scoped
	Timestamp        time.Time
	ModelID          string
	ActionType       ActionType
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	LatencyMillis    int64
}

// RankedCandidate is the transient per-file aggregation result produced by
// the Vector Indexer (spec.md §4.3).
type RankedCandidate struct {
	FileID  string
	Score   float64
	Preview string
}

// SeniorityLevel and SeniorityAlignment are the enumerations used inside
// ExperienceAnalysis.
type SeniorityLevel string

const (
	SeniorityJunior     SeniorityLevel = "Junior"
	SeniorityMid        SeniorityLevel = "Mid"
	SenioritySenior     SeniorityLevel = "Senior"
	SeniorityLead       SeniorityLevel = "Lead"
	SeniorityUnknown    SeniorityLevel = "Unknown"
	SeniorityUnverified SeniorityLevel = "Unverified"
)

type SeniorityAlignment string

const (
	AlignmentBelowRequirements   SeniorityAlignment = "Below Requirements"
	AlignmentMeetsRequirements   SeniorityAlignment = "Meets Requirements"
	AlignmentExceedsRequirements SeniorityAlignment = "Exceeds Requirements"
	AlignmentUnknown             SeniorityAlignment = "Unknown"
	AlignmentUnverified          SeniorityAlignment = "Unverified"
)

// FitLabel is the band label attached to a ScreeningResult's fit_score.
type FitLabel string

const (
	FitLow       FitLabel = "Low Match"
	FitMedium    FitLabel = "Medium Match"
	FitHigh      FitLabel = "High Match"
	FitExcellent FitLabel = "Excellent Match"
	FitError     FitLabel = "Error"
	FitLight     FitLabel = "Light Match"
)

// FitLabelForScore maps a 0-100 fit_score to its band label, per spec.md §6.
func FitLabelForScore(score int) FitLabel {
	switch {
	case score <= 30:
		return FitLow
	case score <= 60:
		return FitMedium
	case score <= 85:
		return FitHigh
	default:
		return FitExcellent
	}
}

// ExperienceAnalysis is part of KeyMatchAnalysis.
type ExperienceAnalysis struct {
	TotalRelevantExperienceYears float64            `json:"total_relevant_experience_years"`
	RequiredYears                float64            `json:"required_years"`
	SeniorityLevel               SeniorityLevel     `json:"seniority_level"`
	SeniorityAlignment           SeniorityAlignment `json:"seniority_alignment"`
	RoleFitJustification         string             `json:"role_fit_justification"`
}

// KeyMatchAnalysis is part of ScreeningResult.
type KeyMatchAnalysis struct {
	Strengths             []string           `json:"strengths"`
	MissingCriticalSkills []string           `json:"missing_critical_skills"`
	ExperienceAnalysis    ExperienceAnalysis `json:"experience_analysis"`
}

// Flags is part of ScreeningResult.
type Flags struct {
	RedFlags    []string `json:"red_flags"`
	YellowFlags []string `json:"yellow_flags"`
}

// InterviewPrep is part of ScreeningResult.
type InterviewPrep struct {
	InterviewRecommendation string   `json:"interview_recommendation,omitempty"`
	SuggestedQuestions      []string `json:"suggested_questions"`
}

// Usage mirrors the provider's normalized token-usage triple, per
// spec.md §9's Open Question 3.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ResultMeta is the meta block attached to every ScreeningResult.
type ResultMeta struct {
	Method string `json:"method"`
	Model  string `json:"model"`
	Usage  *Usage `json:"usage,omitempty"`
	Tier   string `json:"tier,omitempty"`
}

// ScreeningResult is the user-visible, transient per-candidate result
// produced by either the full LLM screen or the light keyword screen.
type ScreeningResult struct {
	FitScore         int              `json:"fit_score"`
	FitLabel         FitLabel         `json:"fit_label"`
	ExecutiveSummary string           `json:"executive_summary"`
	KeyMatchAnalysis KeyMatchAnalysis `json:"key_match_analysis"`
	Flags            Flags            `json:"flags"`
	InterviewPrep    InterviewPrep    `json:"interview_prep"`
	CVID             string           `json:"cv_id"`
	CandidateName    string           `json:"candidate_name"`
	ContactInfo      kv.KSVA          `json:"contact_info"`
	Meta             ResultMeta       `json:"meta"`
}

// Anonymize redacts candidate-identifying fields in place, per spec.md §4.4.
func (r *ScreeningResult) Anonymize() {
	r.CandidateName = "[REDACTED]"
	r.ContactInfo = kv.NewKSVA()
}
