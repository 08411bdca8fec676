/*
Copyright 2026 Reviewloop Authors
SPDX-License-Identifier: Apache-2.0
*/

package prompt

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"unicode"
)

// slot is a value waiting to be substituted for a placeholder.
type slot interface {
	value() (string, error)
}

// pendingSlot is the initial state of every placeholder.
type pendingSlot struct {
	name string
}

func (p *pendingSlot) value() (string, error) {
	return "", fmt.Errorf("unbound placeholder: %s", p.name)
}

// textSlot holds a plain string value.
type textSlot struct {
	val string
}

func (t *textSlot) value() (string, error) {
	return t.val, nil
}

// jsonSlot holds structured data rendered as indented JSON at build time.
type jsonSlot struct {
	data any
}

func (j *jsonSlot) value() (string, error) {
	b, err := json.MarshalIndent(j.data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(b), nil
}

// Template is a prompt template with {{name}} placeholders.
type Template struct {
	text  string
	slots map[string]slot
}

// New parses a template and registers every placeholder it contains.
func New(text string) (*Template, error) {
	slots := make(map[string]slot)
	if _, err := walk(text, func(name string) (string, error) {
		if _, ok := slots[name]; !ok {
			slots[name] = &pendingSlot{name: name}
		}
		return "", nil
	}); err != nil {
		return nil, err
	}
	return &Template{text: text, slots: slots}, nil
}

// Has reports whether the template contains the named placeholder.
func (t *Template) Has(name string) bool {
	_, ok := t.slots[name]
	return ok
}

// Placeholders returns the placeholder names in sorted order.
func (t *Template) Placeholders() []string {
	return slices.Sorted(maps.Keys(t.slots))
}

// Bind sets a placeholder to a string value. It returns a new Template,
// leaving the receiver untouched. Binding an unknown or already bound
// placeholder is an error.
func (t *Template) Bind(name, value string) (*Template, error) {
	return t.set(name, &textSlot{val: value})
}

// BindJSON sets a placeholder to data marshaled as indented JSON.
func (t *Template) BindJSON(name string, data any) (*Template, error) {
	return t.set(name, &jsonSlot{data: data})
}

func (t *Template) set(name string, s slot) (*Template, error) {
	existing, ok := t.slots[name]
	if !ok {
		return nil, fmt.Errorf("placeholder %q not found in template", name)
	}
	if _, pending := existing.(*pendingSlot); !pending {
		return nil, fmt.Errorf("placeholder %q already bound", name)
	}
	next := &Template{text: t.text, slots: maps.Clone(t.slots)}
	next.slots[name] = s
	return next, nil
}

// Build renders the template, failing if any placeholder is still unbound.
func (t *Template) Build() (string, error) {
	values := make(map[string]string, len(t.slots))
	for name, s := range t.slots {
		v, err := s.value()
		if err != nil {
			return "", err
		}
		values[name] = v
	}
	return walk(t.text, func(name string) (string, error) {
		if v, ok := values[name]; ok {
			return v, nil
		}
		return "", fmt.Errorf("internal error: placeholder %q missing from values", name)
	})
}

// walk tokenizes the template, calling resolve for each {{name}} placeholder
// and splicing its result into the output.
func walk(text string, resolve func(name string) (string, error)) (string, error) {
	var out strings.Builder
	for len(text) > 0 {
		start := strings.Index(text, "{{")
		if start == -1 {
			out.WriteString(text)
			break
		}
		out.WriteString(text[:start])

		end := strings.Index(text[start:], "}}")
		if end == -1 {
			return "", errors.New("unclosed placeholder: missing '}}'")
		}
		end += start + 2

		name := strings.TrimSpace(text[start+2 : end-2])
		if !isIdentifier(name) {
			return "", fmt.Errorf("invalid placeholder name %q", name)
		}
		replacement, err := resolve(name)
		if err != nil {
			return "", err
		}
		out.WriteString(replacement)

		text = text[end:]
	}
	return out.String(), nil
}

// isIdentifier reports whether s starts with a letter and contains only
// letters, digits, and underscores.
func isIdentifier(s string) bool {
	if len(s) == 0 {
		return false
	}
	runes := []rune(s)
	if !unicode.IsLetter(runes[0]) {
		return false
	}
	for _, r := range runes[1:] {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}
