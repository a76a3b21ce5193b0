package registry

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"coach-selection-workers/internal/common/errors"
	"coach-selection-workers/internal/common/validation"
)

//go:embed activities.json
var embeddedRegistry []byte

// LoadRegistry reads a registry file. An empty path loads the registry
// compiled into the binary.
func LoadRegistry(path string) (*ActivityRegistry, error) {
	data := embeddedRegistry
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, err
		}
	}
	return Parse(data)
}

func Parse(data []byte) (*ActivityRegistry, error) {
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse activity registry: %w", err)
	}
	return &reg, nil
}

func (r *ActivityRegistry) ByTaskType(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// ValidateInput checks job variables against the input schema of taskType.
// Task types without a registered schema always pass.
func (r *ActivityRegistry) ValidateInput(taskType string, variables []byte) (*validation.ValidationResult, error) {
	activity, ok := r.ByTaskType(taskType)
	if !ok || len(activity.InputSchema) == 0 {
		return &validation.ValidationResult{Valid: true}, nil
	}
	schema, err := json.Marshal(activity.InputSchema)
	if err != nil {
		return nil, fmt.Errorf("encode input schema of %s: %w", taskType, err)
	}
	return validation.ValidateInput(variables, string(schema))
}

// Check reports naming, duplicate, category, timeout, error code and schema
// problems across the registry.
func (r *ActivityRegistry) Check() []string {
	var problems []string
	seenIDs := make(map[string]bool)
	seenTasks := make(map[string]bool)

	for _, a := range r.Activities {
		if err := validation.ValidateActivityNaming(a.ID); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", a.ID, err))
		}
		if seenIDs[a.ID] {
			problems = append(problems, fmt.Sprintf("%s: duplicate activity id", a.ID))
		}
		if a.TaskType == "" {
			problems = append(problems, fmt.Sprintf("%s: missing taskType", a.ID))
		} else if seenTasks[a.TaskType] {
			problems = append(problems, fmt.Sprintf("%s: duplicate taskType %s", a.ID, a.TaskType))
		}
		seenIDs[a.ID] = true
		seenTasks[a.TaskType] = true

		if a.Category != "" && a.Category != CategoryScoring && a.Category != CategorySelection {
			problems = append(problems, fmt.Sprintf("%s: unknown category %s", a.ID, a.Category))
		}
		if _, err := a.TimeoutDuration(); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", a.ID, err))
		}
		for _, code := range a.ErrorCodes {
			if !errors.IsBPMNCode(code) {
				problems = append(problems, fmt.Sprintf("%s: unknown error code %s", a.ID, code))
			}
		}

		if len(a.InputSchema) > 0 {
			if _, err := r.ValidateInput(a.TaskType, []byte(`{}`)); err != nil {
				problems = append(problems, fmt.Sprintf("%s: %v", a.ID, err))
			}
		}
	}
	return problems
}

// TaskTypes lists the registered task types in sorted order.
func (r *ActivityRegistry) TaskTypes() []string {
	out := make([]string, 0, len(r.Activities))
	for _, a := range r.Activities {
		out = append(out, a.TaskType)
	}
	sort.Strings(out)
	return out
}

// Summary renders one line per activity for CLI output.
func (r *ActivityRegistry) Summary() string {
	var b strings.Builder
	for _, a := range r.Activities {
		fmt.Fprintf(&b, "%-40s %-32s retries=%d timeout=%s\n", a.ID, a.TaskType, a.Retries, a.Timeout)
	}
	return b.String()
}
