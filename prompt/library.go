/*
Copyright 2026 Reviewloop Authors
SPDX-License-Identifier: Apache-2.0
*/

package prompt

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Role holds the system instructions and the user-prompt template for one
// of the review roles.
type Role struct {
	System string
	Base   string
}

// Library is the complete set of prompt templates for a review run.
type Library struct {
	Orchestrator Role
	SubAgent     Role
	Summary      Role

	// FocusAreas maps a focus key to its prompt description. Areas not
	// selected for a run are folded into the ignore message.
	FocusAreas map[string]string

	// IgnoreMessage is a template with an ignore_areas placeholder,
	// rendered only when at least one area is ignored.
	IgnoreMessage string

	// ReviewDepths maps a depth name to its prompt description.
	ReviewDepths map[string]string
}

// Default returns the built-in prompt library.
func Default() *Library {
	return defaultLibrary()
}

// roleFile is the YAML shape of one role section in a library file.
type roleFile struct {
	System        *string           `yaml:"system"`
	Base          *string           `yaml:"base"`
	FocusAreas    map[string]string `yaml:"focus_areas"`
	IgnoreMessage *string           `yaml:"ignore_message"`
	ReviewDepths  map[string]string `yaml:"review_depths"`
}

type libraryFile struct {
	Orchestrator roleFile `yaml:"orchestrator"`
	SubAgent     roleFile `yaml:"sub_agent"`
	Summary      roleFile `yaml:"summary"`
}

// Load reads a YAML library file and overlays it on the defaults. Only
// the keys present in the file are replaced; focus areas and review
// depths merge per key.
func Load(path string) (*Library, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt library: %w", err)
	}
	var file libraryFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse prompt library: %w", err)
	}

	lib := Default()
	overlayRole(&lib.Orchestrator, file.Orchestrator)
	overlayRole(&lib.SubAgent, file.SubAgent)
	overlayRole(&lib.Summary, file.Summary)
	if file.Orchestrator.IgnoreMessage != nil {
		lib.IgnoreMessage = *file.Orchestrator.IgnoreMessage
	}
	maps.Copy(lib.FocusAreas, file.Orchestrator.FocusAreas)
	maps.Copy(lib.ReviewDepths, file.Orchestrator.ReviewDepths)

	if err := lib.validate(); err != nil {
		return nil, fmt.Errorf("invalid prompt library %s: %w", path, err)
	}
	return lib, nil
}

func overlayRole(dst *Role, src roleFile) {
	if src.System != nil {
		dst.System = *src.System
	}
	if src.Base != nil {
		dst.Base = *src.Base
	}
}

// validate parses every template and checks that the placeholders the
// builders depend on survive customization.
func (l *Library) validate() error {
	checks := []struct {
		name     string
		text     string
		required []string
	}{
		{"orchestrator base", l.Orchestrator.Base, []string{"repo_structure"}},
		{"sub_agent base", l.SubAgent.Base, []string{"task"}},
		{"summary base", l.Summary.Base, nil},
		{"ignore_message", l.IgnoreMessage, nil},
	}
	for _, c := range checks {
		t, err := New(c.text)
		if err != nil {
			return fmt.Errorf("%s: %w", c.name, err)
		}
		for _, name := range c.required {
			if !t.Has(name) {
				return fmt.Errorf("%s: missing required placeholder {{%s}}", c.name, name)
			}
		}
	}
	return nil
}

// OrchestratorInput carries the per-iteration state the orchestrator
// prompt is built from.
type OrchestratorInput struct {
	// Structure is the repository listing, marshaled to JSON.
	Structure any

	// Depth is a key of Library.ReviewDepths.
	Depth string

	// FocusAreas holds the selected focus keys. Empty selects all.
	FocusAreas []string

	PreviousResults        string
	AdditionalInstructions string
	FileState              string
}

// OrchestratorPrompt renders the orchestrator system and user prompts.
func (l *Library) OrchestratorPrompt(in OrchestratorInput) (system, user string, err error) {
	depth, ok := l.ReviewDepths[in.Depth]
	if !ok {
		return "", "", fmt.Errorf("unknown review depth %q (known: %s)",
			in.Depth, strings.Join(slices.Sorted(maps.Keys(l.ReviewDepths)), ", "))
	}
	focusText, ignoreText, err := l.focusTexts(in.FocusAreas)
	if err != nil {
		return "", "", err
	}

	t, err := New(l.Orchestrator.Base)
	if err != nil {
		return "", "", fmt.Errorf("orchestrator base: %w", err)
	}
	if t, err = bindText(t, "review_depth", depth); err != nil {
		return "", "", err
	}
	if t, err = bindText(t, "focus_areas", focusText); err != nil {
		return "", "", err
	}
	if t, err = bindText(t, "ignore_areas", ignoreText); err != nil {
		return "", "", err
	}
	if t, err = bindJSON(t, "repo_structure", in.Structure); err != nil {
		return "", "", err
	}
	if t, err = bindText(t, "previous_results", in.PreviousResults); err != nil {
		return "", "", err
	}
	if t, err = bindText(t, "additional_instructions", in.AdditionalInstructions); err != nil {
		return "", "", err
	}
	if t, err = bindText(t, "file_state", in.FileState); err != nil {
		return "", "", err
	}
	user, err = t.Build()
	if err != nil {
		return "", "", fmt.Errorf("orchestrator base: %w", err)
	}
	return l.Orchestrator.System, user, nil
}

// SubAgentPrompt renders the sub-agent system and user prompts for one
// delegated task.
func (l *Library) SubAgentPrompt(task string, structure any) (system, user string, err error) {
	t, err := New(l.SubAgent.Base)
	if err != nil {
		return "", "", fmt.Errorf("sub_agent base: %w", err)
	}
	if t, err = bindText(t, "task", task); err != nil {
		return "", "", err
	}
	if t, err = bindJSON(t, "repo_structure", structure); err != nil {
		return "", "", err
	}
	user, err = t.Build()
	if err != nil {
		return "", "", fmt.Errorf("sub_agent base: %w", err)
	}
	return l.SubAgent.System, user, nil
}

// SummaryInput carries the before and after state the summary prompt is
// built from.
type SummaryInput struct {
	OriginalStructure any
	NewStructure      any

	// CleanedChanges is the per-file diff summary, marshaled to JSON.
	CleanedChanges any

	ChangeLog      string
	OriginalReadme string
}

// SummaryPrompt renders the summary system and user prompts.
func (l *Library) SummaryPrompt(in SummaryInput) (system, user string, err error) {
	t, err := New(l.Summary.Base)
	if err != nil {
		return "", "", fmt.Errorf("summary base: %w", err)
	}
	if t, err = bindJSON(t, "original_structure", in.OriginalStructure); err != nil {
		return "", "", err
	}
	if t, err = bindJSON(t, "new_structure", in.NewStructure); err != nil {
		return "", "", err
	}
	if t, err = bindJSON(t, "cleaned_changes", in.CleanedChanges); err != nil {
		return "", "", err
	}
	if t, err = bindText(t, "changes_summary", in.ChangeLog); err != nil {
		return "", "", err
	}
	if t, err = bindText(t, "original_readme", in.OriginalReadme); err != nil {
		return "", "", err
	}
	user, err = t.Build()
	if err != nil {
		return "", "", fmt.Errorf("summary base: %w", err)
	}
	return l.Summary.System, user, nil
}

// focusTexts resolves the selected focus keys into the focus description
// list and the rendered ignore message for the rest of the catalog.
func (l *Library) focusTexts(selected []string) (focus, ignore string, err error) {
	all := slices.Sorted(maps.Keys(l.FocusAreas))
	keys := selected
	if len(keys) == 0 {
		keys = all
	}

	chosen := make(map[string]bool, len(keys))
	descs := make([]string, 0, len(keys))
	for _, k := range keys {
		desc, ok := l.FocusAreas[k]
		if !ok {
			return "", "", fmt.Errorf("unknown focus area %q (known: %s)",
				k, strings.Join(all, ", "))
		}
		if chosen[k] {
			continue
		}
		chosen[k] = true
		descs = append(descs, desc)
	}

	var ignored []string
	for _, k := range all {
		if !chosen[k] {
			ignored = append(ignored, l.FocusAreas[k])
		}
	}
	focus = strings.Join(descs, ", ")
	if len(ignored) == 0 {
		return focus, "", nil
	}

	t, err := New(l.IgnoreMessage)
	if err != nil {
		return "", "", fmt.Errorf("ignore_message: %w", err)
	}
	if t, err = bindText(t, "ignore_areas", strings.Join(ignored, ", ")); err != nil {
		return "", "", err
	}
	ignore, err = t.Build()
	if err != nil {
		return "", "", fmt.Errorf("ignore_message: %w", err)
	}
	return focus, ignore, nil
}

// bindText binds a string value when the template has the placeholder,
// so customized templates may drop optional sections.
func bindText(t *Template, name, value string) (*Template, error) {
	if !t.Has(name) {
		return t, nil
	}
	return t.Bind(name, value)
}

// bindJSON is bindText for structured values.
func bindJSON(t *Template, name string, data any) (*Template, error) {
	if !t.Has(name) {
		return t, nil
	}
	return t.BindJSON(name, data)
}
