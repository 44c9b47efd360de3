package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/OpenGeoFlow/geoflow/internal/workflow/model"
)

// ErrReportPrematurelyRequested is returned when the report job runs while a
// preceding task is still pending. The dispatcher's ordering guarantee makes
// this unreachable in normal operation.
var ErrReportPrematurelyRequested = errors.New("report requested before preceding tasks finished")

// ReportStore is the slice of the entity store the report job needs.
type ReportStore interface {
	ListTasksByWorkflowID(workflowID uuid.UUID) ([]model.Task, error)
	GetWorkflowByID(id uuid.UUID) (*model.Workflow, error)
	UpdateWorkflow(workflow *model.Workflow) error
}

// ReportTaskEntry describes one preceding task inside the final report.
type ReportTaskEntry struct {
	TaskID     uuid.UUID        `json:"taskId"`
	Type       string           `json:"type"`
	StepNumber int              `json:"stepNumber"`
	Status     model.TaskStatus `json:"status"`
	Output     any              `json:"output,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// ReportSummary aggregates counts over the preceding tasks.
type ReportSummary struct {
	TotalTasks        int    `json:"totalTasks"`
	CompletedTasks    int    `json:"completedTasks"`
	FailedTasks       int    `json:"failedTasks"`
	ReportGeneratedAt string `json:"reportGeneratedAt"`
}

// Report is the structured return value of the reportGeneration job.
type Report struct {
	WorkflowID  uuid.UUID         `json:"workflowId"`
	Tasks       []ReportTaskEntry `json:"tasks"`
	FinalReport string            `json:"finalReport"`
	Summary     ReportSummary     `json:"summary"`
}

// ReportJob aggregates the outputs of the tasks preceding it in the same
// workflow into a structured final report.
//
// It is privileged: unlike other jobs it reads sibling tasks and writes the
// owning workflow's finalResult directly.
type ReportJob struct {
	store ReportStore
	now   func() time.Time
}

func NewReportJob(store ReportStore) *ReportJob {
	return &ReportJob{store: store, now: time.Now}
}

func (j *ReportJob) Run(ctx context.Context, task *model.Task) (any, error) {
	siblings, err := j.store.ListTasksByWorkflowID(task.WorkflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to load workflow tasks: %w", err)
	}

	// Preceding tasks only, excluding the report task itself.
	preceding := make([]model.Task, 0, len(siblings))
	for _, sibling := range siblings {
		if sibling.ID == task.ID || sibling.StepNumber >= task.StepNumber {
			continue
		}
		preceding = append(preceding, sibling)
	}
	sort.Slice(preceding, func(i, k int) bool {
		return preceding[i].StepNumber < preceding[k].StepNumber
	})

	for _, p := range preceding {
		if p.Status == model.TaskStatusQueued || p.Status == model.TaskStatusInProgress {
			setErrorEnvelope(task, ErrReportPrematurelyRequested.Error())
			return nil, ErrReportPrematurelyRequested
		}
	}

	report := j.buildReport(task, preceding)

	serialized, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize report: %w", err)
	}
	out := string(serialized)
	task.Output = &out

	// The report doubles as the workflow's finalResult.
	workflow, err := j.store.GetWorkflowByID(task.WorkflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to load workflow: %w", err)
	}
	workflow.FinalResult = &out
	if err := j.store.UpdateWorkflow(workflow); err != nil {
		return nil, fmt.Errorf("failed to store final report: %w", err)
	}

	return report, nil
}

func (j *ReportJob) buildReport(task *model.Task, preceding []model.Task) Report {
	generatedAt := j.now().UTC().Format(time.RFC3339)

	entries := make([]ReportTaskEntry, 0, len(preceding))
	completed, failed := 0, 0
	for _, p := range preceding {
		entry := ReportTaskEntry{
			TaskID:     p.ID,
			Type:       p.TaskType,
			StepNumber: p.StepNumber,
			Status:     p.Status,
		}
		switch p.Status {
		case model.TaskStatusCompleted:
			completed++
			if p.Output != nil {
				entry.Output = model.ParseOrRaw(*p.Output)
			}
		case model.TaskStatusFailed:
			failed++
			entry.Error = model.ExtractError(p.Output)
			if p.Output != nil {
				entry.Output = *p.Output
			}
		}
		entries = append(entries, entry)
	}

	return Report{
		WorkflowID:  task.WorkflowID,
		Tasks:       entries,
		FinalReport: renderFinalReport(task.WorkflowID, entries, completed, failed, generatedAt),
		Summary: ReportSummary{
			TotalTasks:        len(entries),
			CompletedTasks:    completed,
			FailedTasks:       failed,
			ReportGeneratedAt: generatedAt,
		},
	}
}

// renderFinalReport produces the human-readable summary text.
func renderFinalReport(workflowID uuid.UUID, entries []ReportTaskEntry, completed, failed int, generatedAt string) string {
	var b strings.Builder
	b.WriteString("Workflow Execution Report\n")
	b.WriteString("=========================\n")
	fmt.Fprintf(&b, "Workflow: %s\n", workflowID)
	fmt.Fprintf(&b, "Tasks: %d total, %d completed, %d failed\n", len(entries), completed, failed)

	var succeeded, failedEntries []ReportTaskEntry
	for _, e := range entries {
		if e.Status == model.TaskStatusCompleted {
			succeeded = append(succeeded, e)
		} else if e.Status == model.TaskStatusFailed {
			failedEntries = append(failedEntries, e)
		}
	}

	if len(succeeded) > 0 {
		b.WriteString("\nSuccessful tasks:\n")
		for _, e := range succeeded {
			fmt.Fprintf(&b, "- %s (Step %d): %s\n", e.Type, e.StepNumber, summarizeOutput(e.Output))
		}
	}
	if len(failedEntries) > 0 {
		b.WriteString("\nFailed tasks:\n")
		for _, e := range failedEntries {
			fmt.Fprintf(&b, "- %s (Step %d): %s\n", e.Type, e.StepNumber, e.Error)
		}
	}

	fmt.Fprintf(&b, "\nGenerated at: %s\n", generatedAt)
	return b.String()
}

// summarizeOutput renders a task output as a one-line summary.
// Objects carrying a numeric area or a country name get domain-aware
// renderings; other objects list their keys; strings pass through.
func summarizeOutput(value any) string {
	switch v := value.(type) {
	case nil:
		return "no output"
	case string:
		return v
	case map[string]any:
		if area, ok := asFloat(v["area"]); ok {
			unit := "square meters"
			if u, ok := v["unit"].(string); ok && u != "" {
				unit = u
			}
			return fmt.Sprintf("Area calculated: %s %s", strconv.FormatFloat(area, 'f', -1, 64), unit)
		}
		if country, ok := v["country"].(string); ok && country != "" {
			return fmt.Sprintf("Location: %s", country)
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return strings.Join(keys, ", ")
	default:
		return fmt.Sprintf("%v", value)
	}
}

func asFloat(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
