package job

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TaskExportCSV is the job type name stored in Redis.
	// Asynq uses task type strings to route to handlers.
	TaskExportCSV = "export:csv"
)

// ExportPayload is the JSON payload data for the CSV export task.
type ExportPayload struct {
	ExportID   string `json:"export_id"`
	ResultID   string `json:"result_id"`
	SearchType string `json:"search_type"`
	Condition  string `json:"condition"`
	CellType   string `json:"cell_type"`
	// RequestID correlates worker logs with the HTTP request that queued
	// the export.
	RequestID string `json:"request_id,omitempty"`
}

// NewExportTask constructs an Asynq task that saves a stashed result as CSV.
//
// The result id doubles as the task id, so saving the same result twice
// while the first export is still queued is rejected by asynq.
func NewExportTask(p ExportPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskExportCSV,
		payload,
		asynq.TaskID(p.ResultID),
		asynq.MaxRetry(3),
		asynq.Queue("default"),
		asynq.Timeout(5*time.Minute),
	), nil
}

// ParseExportPayload decodes the payload of an export task.
func ParseExportPayload(t *asynq.Task) (ExportPayload, error) {
	var p ExportPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return ExportPayload{}, fmt.Errorf("failed to unmarshal export payload: %w", err)
	}
	if p.ResultID == "" || p.ExportID == "" {
		return ExportPayload{}, fmt.Errorf("export payload without result or export id: %w", asynq.SkipRetry)
	}
	return p, nil
}
