package installer

import "my-unicorn/internal/progress"

// nopReporter discards progress when no reporter is configured.
type nopReporter struct{}

func (nopReporter) AddTask(string, progress.Category, ...progress.TaskOption) (string, error) {
	return "", nil
}

func (nopReporter) UpdateTask(string, progress.Update) {}

func (nopReporter) UpdateTaskTotal(string, float64) {}

func (nopReporter) FinishTask(string, bool, string) {}

func (nopReporter) TaskInfo(string) progress.Info { return progress.Info{} }

func (nopReporter) TaskInfoFull(string) (progress.Task, bool) { return progress.Task{}, false }

func (nopReporter) CreateAPIFetchingTask(string) (string, error) { return "", nil }

func (nopReporter) CreateVerificationTask(string) (string, error) { return "", nil }

func (nopReporter) CreateInstallationWorkflow(string, bool) (string, string, error) {
	return "", "", nil
}

func (nopReporter) IsActive() bool { return false }
