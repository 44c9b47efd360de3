package job

import "fmt"

// UnknownTaskTypeError is returned when a task type has no registered job.
type UnknownTaskTypeError struct {
	TaskType string
}

func (e *UnknownTaskTypeError) Error() string {
	return fmt.Sprintf("unknown task type: %s", e.TaskType)
}

// Registry maps task type tags to job implementations. It is populated at
// process start and immutable afterwards, so lookups need no locking.
type Registry struct {
	jobs map[string]Job
}

// NewRegistry creates a registry containing the given jobs.
func NewRegistry(jobs map[string]Job) *Registry {
	r := &Registry{jobs: make(map[string]Job, len(jobs))}
	for taskType, j := range jobs {
		r.jobs[taskType] = j
	}
	return r
}

// Lookup returns the job registered for taskType.
func (r *Registry) Lookup(taskType string) (Job, error) {
	j, ok := r.jobs[taskType]
	if !ok {
		return nil, &UnknownTaskTypeError{TaskType: taskType}
	}
	return j, nil
}

// Has reports whether taskType resolves to a registered job.
// Used by the workflow factory at validation time.
func (r *Registry) Has(taskType string) bool {
	_, ok := r.jobs[taskType]
	return ok
}
