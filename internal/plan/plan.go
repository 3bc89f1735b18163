// Package plan loads task plan files and applies them through the tracker.
//
// A plan is a batch of task entries. Entries carrying an ID are updates;
// entries without one are create candidates and go through the duplicate
// resolver. Updates always apply before creates so referenced parents
// exist by the time children are created. Processing is fail-soft:
// per-entry errors are collected and the batch continues.
package plan

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/taskdot/taskdot/internal/task"
)

// Entry is one task in a plan file. "parentId" and "childOf" are
// interchangeable spellings of the same field.
type Entry struct {
	ID          string        `json:"id,omitempty" yaml:"id,omitempty"`
	Title       string        `json:"title" yaml:"title"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Body        string        `json:"body,omitempty" yaml:"body,omitempty"`
	Status      string        `json:"status,omitempty" yaml:"status,omitempty"`
	Readiness   string        `json:"readiness,omitempty" yaml:"readiness,omitempty"`
	Tags        []string      `json:"tags,omitempty" yaml:"tags,omitempty"`
	ParentID    string        `json:"parentId,omitempty" yaml:"parentId,omitempty"`
	ChildOf     string        `json:"childOf,omitempty" yaml:"childOf,omitempty"`
	After       string        `json:"after,omitempty" yaml:"after,omitempty"`
	Force       bool          `json:"force,omitempty" yaml:"force,omitempty"`
	Metadata    task.Metadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Parent resolves the parentId/childOf alias, childOf winning when both
// are set.
func (e *Entry) Parent() string {
	if e.ChildOf != "" {
		return e.ChildOf
	}
	return e.ParentID
}

// IsUpdate reports whether the entry targets an existing task.
func (e *Entry) IsUpdate() bool {
	return e.ID != ""
}

// File is a parsed plan.
type File struct {
	Tasks []Entry `json:"tasks" yaml:"tasks"`
}

// Load reads a plan from path. The format follows the extension:
// .json (default), .yaml/.yml, or .jsonl with one entry per line.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var f File
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse YAML plan %s: %w", path, err)
		}
		return &f, nil
	case ".jsonl":
		return parseJSONL(path, data)
	default:
		var f File
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse JSON plan %s: %w", path, err)
		}
		return &f, nil
	}
}

// parseJSONL reads one entry per line, skipping blanks.
func parseJSONL(path string, data []byte) (*File, error) {
	var f File
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			return nil, fmt.Errorf("failed to parse %s line %d: %w", path, lineNo, err)
		}
		f.Tasks = append(f.Tasks, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", path, err)
	}
	return &f, nil
}

// Validate checks the structural rules that do not need the task set:
// create entries need a title, and enum fields must parse. Update
// entries may carry only the fields they change.
func (f *File) Validate() error {
	for i, e := range f.Tasks {
		if !e.IsUpdate() && strings.TrimSpace(e.Title) == "" {
			return task.Errorf(task.KindValidation, "plan entry %d: title is required", i)
		}
		if e.Status != "" && !task.ValidStatus(task.Status(e.Status)) {
			return task.Errorf(task.KindValidation, "plan entry %d: invalid status %q", i, e.Status)
		}
		if e.Readiness != "" && !task.ValidReadiness(task.Readiness(e.Readiness)) {
			return task.Errorf(task.KindValidation, "plan entry %d: invalid readiness %q", i, e.Readiness)
		}
	}
	return nil
}

// Ordered returns the entries in application order: updates first (plan
// order preserved), then creates (plan order preserved). This guarantees
// parents referenced by childOf already exist when children are created.
func (f *File) Ordered() []Entry {
	out := make([]Entry, 0, len(f.Tasks))
	for _, e := range f.Tasks {
		if e.IsUpdate() {
			out = append(out, e)
		}
	}
	for _, e := range f.Tasks {
		if !e.IsUpdate() {
			out = append(out, e)
		}
	}
	return out
}
