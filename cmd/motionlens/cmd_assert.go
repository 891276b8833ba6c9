// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/MotionLens/services/assertions"
	"github.com/AleutianAI/MotionLens/services/perfetto"
	"github.com/AleutianAI/MotionLens/services/wm"
)

// checkSpec is one predicate in the checks document.
type checkSpec struct {
	// Window names the window the check applies to.
	Window string `yaml:"window"`

	// Check selects the predicate: isVisible, isInvisible, onTop,
	// exists, isAbove, or noOverlap.
	Check string `yaml:"check"`

	// Below is the lower window for isAbove.
	Below string `yaml:"below"`

	// Other is the second window for noOverlap.
	Other string `yaml:"other"`
}

// assertionSpec is one assertion in the checks document. Mode is
// forAll, atLeastOnce, or sequence; sequence uses Steps instead of
// the inline check fields.
type assertionSpec struct {
	Mode  string      `yaml:"mode"`
	Steps []checkSpec `yaml:"steps"`

	checkSpec `yaml:",inline"`
}

// checksDocument is the YAML document given to the assert command.
type checksDocument struct {
	Assertions []assertionSpec `yaml:"assertions"`
}

// assertionResult is the per-assertion outcome.
type assertionResult struct {
	Assertion string `json:"assertion"`
	Passed    bool   `json:"passed"`
	Failure   string `json:"failure,omitempty"`
}

// runAssert evaluates the checks document against the trace.
func runAssert(cmd *cobra.Command, args []string) {
	doc, err := loadChecks(checksPath)
	if err != nil {
		OutputError("loading checks", err)
		exit(CLIExitError)
	}
	trace, err := parseWindowTrace(cmd.Context(), args[0])
	if err != nil {
		OutputError("parsing trace", err)
		exit(CLIExitError)
	}
	subject := assertions.NewSubject(trace)

	results := make([]assertionResult, 0, len(doc.Assertions))
	failed := 0
	for i, spec := range doc.Assertions {
		label, err := evaluate(subject, spec)
		if err != nil && label == "" {
			OutputError(fmt.Sprintf("assertion %d", i+1), err)
			exit(CLIExitError)
		}
		r := assertionResult{Assertion: label, Passed: err == nil}
		if err != nil {
			r.Failure = err.Error()
			failed++
		}
		results = append(results, r)
	}

	printAssertionResults(results)
	if failed > 0 {
		exit(CLIExitFindings)
	}
}

// loadChecks reads and validates the YAML checks document.
func loadChecks(path string) (*checksDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc checksDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Assertions) == 0 {
		return nil, fmt.Errorf("%s: no assertions defined", path)
	}
	return &doc, nil
}

// parseWindowTrace loads the binary trace and parses window states.
func parseWindowTrace(ctx context.Context, path string) (*wm.Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	session, err := perfetto.NewSession(perfetto.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	defer session.Close()
	if err := session.LoadTrace(ctx, data); err != nil {
		return nil, err
	}
	return wm.NewParser(session, wm.WithLogger(logger)).Parse(ctx)
}

// evaluate runs one assertion and returns its display label. A label
// with a non-nil error is an assertion failure; an empty label means
// the check definition itself was invalid.
func evaluate(subject *assertions.TraceSubject, spec assertionSpec) (string, error) {
	switch spec.Mode {
	case "forAll", "":
		p, err := buildPredicate(spec.checkSpec)
		if err != nil {
			return "", err
		}
		return "forAll " + p.Name, subject.ForAll(p)

	case "atLeastOnce":
		p, err := buildPredicate(spec.checkSpec)
		if err != nil {
			return "", err
		}
		return "atLeastOnce " + p.Name, subject.AtLeastOnce(p)

	case "sequence":
		if len(spec.Steps) == 0 {
			return "", fmt.Errorf("sequence assertion has no steps")
		}
		first, err := buildPredicate(spec.Steps[0])
		if err != nil {
			return "", err
		}
		label := "sequence " + first.Name
		chain := subject.First(first)
		for _, step := range spec.Steps[1:] {
			p, err := buildPredicate(step)
			if err != nil {
				return "", err
			}
			label += " then " + p.Name
			chain = chain.Then(p)
		}
		return label, chain.Check()

	default:
		return "", fmt.Errorf("unknown assertion mode %q", spec.Mode)
	}
}

// buildPredicate maps a check spec onto the assertion predicates.
func buildPredicate(spec checkSpec) (assertions.Predicate, error) {
	if spec.Window == "" {
		return assertions.Predicate{}, fmt.Errorf("check %q: window is required", spec.Check)
	}
	switch spec.Check {
	case "isVisible":
		return assertions.WindowIsVisible(spec.Window), nil
	case "isInvisible":
		return assertions.WindowIsInvisible(spec.Window), nil
	case "onTop":
		return assertions.WindowOnTop(spec.Window), nil
	case "exists":
		return assertions.WindowExists(spec.Window), nil
	case "isAbove":
		if spec.Below == "" {
			return assertions.Predicate{}, fmt.Errorf("isAbove requires below")
		}
		return assertions.WindowIsAbove(spec.Window, spec.Below), nil
	case "noOverlap":
		if spec.Other == "" {
			return assertions.Predicate{}, fmt.Errorf("noOverlap requires other")
		}
		return assertions.NoOverlap(spec.Window, spec.Other), nil
	default:
		return assertions.Predicate{}, fmt.Errorf("unknown check %q", spec.Check)
	}
}

func printAssertionResults(results []assertionResult) {
	if jsonOutput {
		OutputJSON(results)
		return
	}
	if quietOutput {
		return
	}
	for _, r := range results {
		if r.Passed {
			fmt.Printf("%s  %s\n", passLabel(), r.Assertion)
			continue
		}
		fmt.Printf("%s  %s\n    %s\n", failLabel(), r.Assertion, r.Failure)
	}
}
