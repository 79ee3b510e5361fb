package screen

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	pkgjson "github.com/lynxscreen/screenpipe/pkg/json"
	pkgstrings "github.com/lynxscreen/screenpipe/pkg/strings"

	"github.com/lynxscreen/screenpipe/internal/domain"
)

var injectionMarkers = []string{
	"ignore previous instructions",
	"system prompt",
	"you are now",
	"jailbreak",
}

// screeningSystemPrompt is the fixed instruction block every full-LLM
// screen prompt carries alongside the JD context (spec.md §4.4).
const screeningSystemPrompt = `You are a résumé screening assistant. Evaluate the candidate strictly ` +
	`against the job description above and return a single JSON object matching the required screening ` +
	`result schema: fit_score, fit_label, executive_summary, key_match_analysis, flags, interview_prep.`

var (
	screeningResultSchemaOnce sync.Once
	screeningResultSchema     string
)

// screeningResultJSONSchema lazily renders domain.ScreeningResult's JSON
// schema once per process and caches it, so repeated full-screen prompts
// don't pay reflection cost on every call.
func screeningResultJSONSchema() string {
	screeningResultSchemaOnce.Do(func() {
		schema, err := pkgjson.StringDefSchemaOf(domain.ScreeningResult{})
		if err != nil {
			// Reflection over a fixed, non-cyclic struct cannot fail; if it
			// somehow does, fall back to the prose description above rather
			// than blocking the screen.
			screeningResultSchema = ""
			return
		}
		screeningResultSchema = schema
	})
	return screeningResultSchema
}

// buildJDContext assembles the JD context string of spec.md §4.4 and
// applies the prompt-injection guard over description+prompt. A guard hit
// is a fatal ValidationError (§7: "Validation errors on the outer call...
// are fatal and surface to the caller").
func buildJDContext(jd *domain.JobDescription) (string, error) {
	guarded := strings.ToLower(jd.Description + " " + jd.Prompt)
	for _, marker := range injectionMarkers {
		if strings.Contains(guarded, marker) {
			return "", domain.ValidationError("potential prompt injection detected in job description")
		}
	}

	var b strings.Builder
	b.WriteString("=== JOB DESCRIPTION ===\n")
	fmt.Fprintf(&b, "Title: %s\n\n", jd.Title)
	b.WriteString(jd.Description)
	b.WriteString("\n")

	if jd.Prompt != "" {
		fmt.Fprintf(&b, "\n[ADDITIONAL SCREENING INSTRUCTIONS: %s]\n", jd.Prompt)
	}
	if jd.CustomRubric != "" {
		fmt.Fprintf(&b, "\n[CUSTOM EVALUATION RUBRIC: %s]\n", jd.CustomRubric)
	}
	if len(jd.Weights) > 0 {
		weights, err := json.Marshal(jd.Weights)
		if err != nil {
			return "", domain.InternalError(err, "screen: marshal scoring weights")
		}
		fmt.Fprintf(&b, "\n[SCORING WEIGHTS: %s]\n", string(weights))
	}

	b.WriteString("=== END JOB DESCRIPTION ===")
	return b.String(), nil
}

// fullScreenPrompt composes the per-résumé full-LLM screen prompt.
// Collapsing runs of blank lines in the extracted résumé text first keeps
// prompts (and token usage) from ballooning on PDFs that extract with
// ragged whitespace.
func fullScreenPrompt(jdContext, fileID, fullContent string) string {
	cleaned := pkgstrings.TrimAdjacentBlankLines(fullContent)
	instructions := screeningSystemPrompt
	if schema := screeningResultJSONSchema(); schema != "" {
		instructions += "\n\nJSON SCHEMA:\n" + schema
	}
	return fmt.Sprintf("%s\n\n%s\n\nRESUME (file_id: %s):\n%s\n\nReturn ONLY the JSON screening result.",
		jdContext, instructions, fileID, cleaned)
}

// keywordExtractionPrompt asks for 5-10 critical keywords from the JD
// description, used once per smart-screen invocation for the light screen.
func keywordExtractionPrompt(description string) string {
	return fmt.Sprintf(
		"Extract the 5 to 10 most critical skill or requirement keywords from this job description. "+
			"Return ONLY a JSON object of the form {\"keywords\": [\"...\"]}.\n\nJOB DESCRIPTION:\n%s",
		description,
	)
}
