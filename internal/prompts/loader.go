// Package prompts holds the stage prompt templates of the discovery pipeline.
// Each embedded JSON file maps a stage key to its template.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

//go:embed *.json
var files embed.FS

// templateSet is one parsed prompt file, loaded at most once
type templateSet struct {
	once      sync.Once
	templates map[string]string
	err       error
}

// sets maps a filename to its *templateSet
var sets sync.Map

var placeholderPattern = regexp.MustCompile(`\{\{\.(\w+)\}\}`)

// Get returns the template stored under key in filename (e.g. "discovery.json").
func Get(filename, key string) (string, error) {
	templates, err := load(filename)
	if err != nil {
		return "", err
	}
	t, ok := templates[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, filename)
	}
	return t, nil
}

// MustGet is Get for templates the caller cannot run without. It panics on a missing key.
func MustGet(filename, key string) string {
	t, err := Get(filename, key)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt: %v", err))
	}
	return t
}

// Require reports every key absent from filename in one error
func Require(filename string, keys ...string) error {
	templates, err := load(filename)
	if err != nil {
		return err
	}
	var missing []string
	for _, k := range keys {
		if _, ok := templates[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("prompt keys missing from %s: %s", filename, strings.Join(missing, ", "))
}

// Format fills {{.Key}} placeholders from data in a single pass. Substituted
// values are never rescanned, so placeholder text inside a value stays literal.
// Placeholders without a data entry are left untouched.
func Format(template string, data map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(m string) string {
		key := placeholderPattern.FindStringSubmatch(m)[1]
		if v, ok := data[key]; ok {
			return v
		}
		return m
	})
}

func load(filename string) (map[string]string, error) {
	v, _ := sets.LoadOrStore(filename, &templateSet{})
	set := v.(*templateSet)
	set.once.Do(func() {
		data, err := files.ReadFile(filename)
		if err != nil {
			set.err = fmt.Errorf("failed to read prompt file %s: %w", filename, err)
			return
		}
		if err := json.Unmarshal(data, &set.templates); err != nil {
			set.err = fmt.Errorf("failed to parse prompt file %s: %w", filename, err)
		}
	})
	return set.templates, set.err
}
