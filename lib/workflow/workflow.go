// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package workflow models the JIRA workflow graph the gateway needs for
// driving status transitions: which transition names move an issue from
// one status to another, and which statuses carry a resolution.
//
// JIRA's REST API exposes the transitions available on a single issue
// but not the workflow definitions themselves, so the graph is supplied
// by the operator in the gateway configuration.
package workflow

import (
	"fmt"
	"strings"
)

// Transition is a named edge out of a step. DestinationStep names a step
// that may live in any configured workflow.
type Transition struct {
	Name            string `yaml:"name"`
	DestinationStep string `yaml:"destination_step"`
}

// Step is a workflow node tied to a JIRA status.
type Step struct {
	Name         string       `yaml:"name"`
	LinkedStatus string       `yaml:"linked_status"`
	Transitions  []Transition `yaml:"transitions"`
}

// Workflow is one named workflow. ResolutionTransitions names the
// transitions that present a resolution screen; the statuses their
// destination steps link to are the resolved statuses.
type Workflow struct {
	Name                  string   `yaml:"name"`
	Steps                 []Step   `yaml:"steps"`
	ResolutionTransitions []string `yaml:"resolution_transitions"`
}

// Set is the full collection of configured workflows.
type Set struct {
	Workflows []Workflow
}

// Validate checks that a transition name maps to a single destination
// step across all workflows. The replication engine only names the
// transition when saving a defect, so an ambiguous name cannot be
// resolved at save time.
func (s *Set) Validate() error {
	destinations := make(map[string]string)
	for _, workflow := range s.Workflows {
		for _, step := range workflow.Steps {
			for _, transition := range step.Transitions {
				previous, ok := destinations[transition.Name]
				if !ok {
					destinations[transition.Name] = transition.DestinationStep
					continue
				}
				if !strings.EqualFold(strings.TrimSpace(previous), strings.TrimSpace(transition.DestinationStep)) {
					return fmt.Errorf("transition %q has different destination steps: %q, %q",
						transition.Name, previous, transition.DestinationStep)
				}
			}
		}
	}
	return nil
}

// ResolutionStatuses returns the statuses reached through resolution
// transitions. For each workflow, each named resolution transition is
// looked up among that workflow's steps and the linked status of its
// destination step is collected.
func (s *Set) ResolutionStatuses() map[string]bool {
	statuses := make(map[string]bool)
	for _, workflow := range s.Workflows {
		for _, name := range workflow.ResolutionTransitions {
			destination, ok := workflow.findDestination(name)
			if !ok {
				continue
			}
			step, ok := workflow.findStep(destination)
			if !ok {
				continue
			}
			statuses[step.LinkedStatus] = true
		}
	}
	return statuses
}

// HasResolution reports whether status is reached through a resolution
// transition, ignoring case.
func (s *Set) HasResolution(status string) bool {
	for resolved := range s.ResolutionStatuses() {
		if strings.EqualFold(strings.TrimSpace(resolved), strings.TrimSpace(status)) {
			return true
		}
	}
	return false
}

// FindTransitions returns the names of transitions that move an issue
// from one status to another. Every step linked to the source status is
// considered; a transition qualifies when its destination step, looked
// up across all workflows, links to the target status. Names are
// deduplicated and returned in discovery order.
func (s *Set) FindTransitions(fromStatus, toStatus string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, workflow := range s.Workflows {
		for _, step := range workflow.Steps {
			if !strings.EqualFold(strings.TrimSpace(step.LinkedStatus), strings.TrimSpace(fromStatus)) {
				continue
			}
			for _, transition := range step.Transitions {
				destination, ok := s.findStepGlobal(transition.DestinationStep)
				if !ok {
					continue
				}
				if !strings.EqualFold(strings.TrimSpace(destination.LinkedStatus), strings.TrimSpace(toStatus)) {
					continue
				}
				if !seen[transition.Name] {
					seen[transition.Name] = true
					names = append(names, transition.Name)
				}
			}
		}
	}
	return names
}

func (w *Workflow) findDestination(transitionName string) (string, bool) {
	for _, step := range w.Steps {
		for _, transition := range step.Transitions {
			if strings.EqualFold(strings.TrimSpace(transition.Name), strings.TrimSpace(transitionName)) {
				return transition.DestinationStep, true
			}
		}
	}
	return "", false
}

func (w *Workflow) findStep(name string) (*Step, bool) {
	for i := range w.Steps {
		if strings.EqualFold(strings.TrimSpace(w.Steps[i].Name), strings.TrimSpace(name)) {
			return &w.Steps[i], true
		}
	}
	return nil, false
}

func (s *Set) findStepGlobal(name string) (*Step, bool) {
	for i := range s.Workflows {
		if step, ok := s.Workflows[i].findStep(name); ok {
			return step, true
		}
	}
	return nil, false
}
