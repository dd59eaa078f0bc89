package jobs

import (
	"time"

	"groupgate/internal/approval"
	"groupgate/internal/config"
	"groupgate/internal/logger"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	coordinator *approval.Coordinator
	config      *config.Config
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(coordinator *approval.Coordinator, cfg *config.Config) *JobRunner {
	return &JobRunner{
		coordinator: coordinator,
		config:      cfg,
	}
}

// Config returns the application configuration
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}

// CleanupExpiredFlows evicts requests past the retention window and reject
// flows past their deadline.
func (jr *JobRunner) CleanupExpiredFlows() {
	jr.runWithRecovery("CleanupExpiredFlows", func() {
		requests, flows := jr.coordinator.SweepExpired(time.Now())
		logger.Info("Cleanup sweep finished", "requests_removed", requests, "reject_flows_removed", flows)
	})
}
