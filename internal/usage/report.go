package usage

import "github.com/lynxscreen/screenpipe/internal/domain"

// Totals is one row of aggregated token/latency/request counters.
type Totals struct {
	Requests           int   `json:"requests"`
	PromptTokens       int   `json:"prompt_tokens"`
	CompletionTokens   int   `json:"completion_tokens"`
	TotalTokens        int   `json:"total_tokens"`
	TotalLatencyMillis int64 `json:"total_latency_millis"`
}

// AverageLatencyMillis is TotalLatencyMillis / Requests, or 0 if empty.
func (t Totals) AverageLatencyMillis() float64 {
	if t.Requests == 0 {
		return 0
	}
	return float64(t.TotalLatencyMillis) / float64(t.Requests)
}

func (t *Totals) add(u *domain.UsageLog) {
	t.Requests++
	t.PromptTokens += u.PromptTokens
	t.CompletionTokens += u.CompletionTokens
	t.TotalTokens += u.TotalTokens
	t.TotalLatencyMillis += u.LatencyMillis
}

// FileTotals is a per-file breakdown row, additionally tracking the
// distinct models and action types that touched the file.
type FileTotals struct {
	Totals
	Models  []string            `json:"models"`
	Actions []domain.ActionType `json:"actions"`

	models  map[string]struct{}
	actions map[domain.ActionType]struct{}
}

func newFileTotals() *FileTotals {
	return &FileTotals{
		models:  make(map[string]struct{}),
		actions: make(map[domain.ActionType]struct{}),
	}
}

func (f *FileTotals) add(u *domain.UsageLog) {
	f.Totals.add(u)
	if _, ok := f.models[u.ModelID]; !ok {
		f.models[u.ModelID] = struct{}{}
		f.Models = append(f.Models, u.ModelID)
	}
	if _, ok := f.actions[u.ActionType]; !ok {
		f.actions[u.ActionType] = struct{}{}
		f.Actions = append(f.Actions, u.ActionType)
	}
}

// Report is the aggregated view over a project's Usage Log rows spec.md
// §4.5 asks for: grand totals, and breakdowns by action type, model, and
// file.
type Report struct {
	Grand    Totals
	ByAction map[domain.ActionType]Totals
	ByModel  map[string]Totals
	ByFile   map[string]*FileTotals
}

// BuildReport aggregates a project's Usage Log rows. logs need not be
// sorted.
func BuildReport(logs []*domain.UsageLog) Report {
	r := Report{
		ByAction: make(map[domain.ActionType]Totals),
		ByModel:  make(map[string]Totals),
		ByFile:   make(map[string]*FileTotals),
	}

	for _, u := range logs {
		r.Grand.add(u)

		byAction := r.ByAction[u.ActionType]
		byAction.add(u)
		r.ByAction[u.ActionType] = byAction

		byModel := r.ByModel[u.ModelID]
		byModel.add(u)
		r.ByModel[u.ModelID] = byModel

		if u.FileID == "" {
			continue
		}
		ft, ok := r.ByFile[u.FileID]
		if !ok {
			ft = newFileTotals()
			r.ByFile[u.FileID] = ft
		}
		ft.add(u)
	}

	return r
}
