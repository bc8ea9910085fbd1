package models

import (
	"encoding/json"
	"errors"
	"math"
)

// TaskTemplate is one entry of the fixed daily chore list.
type TaskTemplate struct {
	ID          string
	Name        string
	Description string
}

// Task is a chore materialized for one day.
type Task struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// UnmarshalJSON implements json.Unmarshaler and rejects tasks without an id.
func (t *Task) UnmarshalJSON(data []byte) error {
	type plain Task
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.ID == "" {
		return errors.New("task: missing id")
	}
	*t = Task(p)
	return nil
}

// DailyTasks is the chore template copied into every new day.
var DailyTasks = []TaskTemplate{
	{ID: "feed", Name: "Feed hens", Description: "Morning and evening feeding"},
	{ID: "water", Name: "Change water", Description: "Fresh water daily"},
	{ID: "collect", Name: "Collect eggs", Description: "Check nesting boxes"},
	{ID: "clean", Name: "Clean bedding", Description: "Replace dirty bedding"},
	{ID: "health", Name: "Health check", Description: "Observe behavior and appearance"},
}

// MaterializeTasks copies the template with every task marked incomplete.
func MaterializeTasks(template []TaskTemplate) []Task {
	out := make([]Task, 0, len(template))
	for _, t := range template {
		out = append(out, Task{ID: t.ID, Name: t.Name, Description: t.Description})
	}
	return out
}

// CompletedCount returns how many tasks are done.
func CompletedCount(tasks []Task) int {
	var n int
	for _, t := range tasks {
		if t.Completed {
			n++
		}
	}
	return n
}

// CompletionRatio returns the rounded percentage of completed tasks, 0 for an empty set.
func CompletionRatio(tasks []Task) int {
	if len(tasks) == 0 {
		return 0
	}
	return int(math.Round(float64(CompletedCount(tasks)) / float64(len(tasks)) * 100))
}
