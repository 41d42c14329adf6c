package scheduler

import (
	"context"
	"time"
)

// Job represents a scheduled job
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	// Name returns the job name
	Name() string

	// Run executes the job
	Run(ctx context.Context) error

	// Schedule returns the cron schedule expression
	// Examples: "30 6 * * 1-5" (weekdays 06:30)
	//           "@daily", "@every 1h"
	Schedule() string
}

// maxHistory 작업별 보관 실행 기록 수
const maxHistory = 100

// JobResult is one (possibly retried) execution of a job
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// JobHistory keeps the last maxHistory results of a job, oldest first
type JobHistory struct {
	Results []JobResult
}

// Record appends a result and drops the oldest beyond maxHistory
func (h *JobHistory) Record(result JobResult) {
	h.Results = append(h.Results, result)
	if overflow := len(h.Results) - maxHistory; overflow > 0 {
		h.Results = append([]JobResult(nil), h.Results[overflow:]...)
	}
}

// Latest returns up to n most recent results
func (h *JobHistory) Latest(n int) []JobResult {
	if n <= 0 {
		return []JobResult{}
	}
	if n > len(h.Results) {
		n = len(h.Results)
	}
	return h.Results[len(h.Results)-n:]
}

// Failures returns the failed results
func (h *JobHistory) Failures() []JobResult {
	var failed []JobResult
	for _, r := range h.Results {
		if !r.Success {
			failed = append(failed, r)
		}
	}
	return failed
}

// SuccessRate 성공 비율 (0.0 - 1.0, 기록 없으면 0)
func (h *JobHistory) SuccessRate() float64 {
	if len(h.Results) == 0 {
		return 0
	}
	return float64(len(h.Results)-len(h.Failures())) / float64(len(h.Results))
}
