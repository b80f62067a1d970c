package models

import (
	"fmt"
	"strings"
)

// Failure pairs an item (object key or file) with the reason it failed.
type Failure struct {
	Item   string
	Reason string
}

// ProcessingResult is the append-only ledger of per-object outcomes for a
// pipeline run. Each stage returns its own result and the caller merges
// them, so the final result is one consolidated view of the whole run.
type ProcessingResult struct {
	Successes       []string
	Failures        []Failure
	Warnings        []string
	NamespacesFound []string
}

func NewProcessingResult() *ProcessingResult {
	return &ProcessingResult{}
}

func (r *ProcessingResult) AddSuccess(item string) {
	r.Successes = append(r.Successes, item)
}

func (r *ProcessingResult) AddFailure(item, reason string) {
	r.Failures = append(r.Failures, Failure{Item: item, Reason: reason})
}

func (r *ProcessingResult) AddWarning(warning string) {
	r.Warnings = append(r.Warnings, warning)
}

// AddNamespace records a discovered namespace, preserving first-seen order
// and ignoring duplicates.
func (r *ProcessingResult) AddNamespace(name string) {
	for _, existing := range r.NamespacesFound {
		if existing == name {
			return
		}
	}
	r.NamespacesFound = append(r.NamespacesFound, name)
}

// Merge appends the entries of other into r. Namespace entries are
// deduplicated; everything else is append-only.
func (r *ProcessingResult) Merge(other *ProcessingResult) {
	if other == nil {
		return
	}
	r.Successes = append(r.Successes, other.Successes...)
	r.Failures = append(r.Failures, other.Failures...)
	r.Warnings = append(r.Warnings, other.Warnings...)
	for _, ns := range other.NamespacesFound {
		r.AddNamespace(ns)
	}
}

func (r *ProcessingResult) HasFailures() bool {
	return len(r.Failures) > 0
}

func (r *ProcessingResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// Summary renders a bounded, human-scannable account of the run: at most
// maxItems failures and warnings are listed, with the true totals always
// reported.
func (r *ProcessingResult) Summary(maxItems int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "processed: %d succeeded, %d failed, %d warnings, %d namespaces\n",
		len(r.Successes), len(r.Failures), len(r.Warnings), len(r.NamespacesFound))
	if len(r.NamespacesFound) > 0 {
		fmt.Fprintf(&b, "namespaces: %s\n", strings.Join(r.NamespacesFound, ", "))
	}
	for i, failure := range r.Failures {
		if i >= maxItems {
			fmt.Fprintf(&b, "  ... and %d more failures\n", len(r.Failures)-maxItems)
			break
		}
		fmt.Fprintf(&b, "  FAIL %s: %s\n", failure.Item, failure.Reason)
	}
	for i, warning := range r.Warnings {
		if i >= maxItems {
			fmt.Fprintf(&b, "  ... and %d more warnings\n", len(r.Warnings)-maxItems)
			break
		}
		fmt.Fprintf(&b, "  WARN %s\n", warning)
	}
	return b.String()
}
