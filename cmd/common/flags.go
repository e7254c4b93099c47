package common

import (
	"fmt"
	"os"
	"strings"
)

// FlagValidator collects flag problems so a command reports all of them at
// once, before any data is fetched
type FlagValidator struct {
	problems []string
}

// NewFlagValidator creates an empty validator
func NewFlagValidator() *FlagValidator {
	return &FlagValidator{}
}

func (v *FlagValidator) addf(format string, args ...interface{}) *FlagValidator {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
	return v
}

// ValidateFloat checks min <= value <= max
func (v *FlagValidator) ValidateFloat(name string, value, min, max float64) *FlagValidator {
	if value < min || value > max {
		return v.addf("%s must be between %.4f and %.4f, got: %.4f", name, min, max, value)
	}
	return v
}

// ValidateInt checks min <= value <= max
func (v *FlagValidator) ValidateInt(name string, value, min, max int) *FlagValidator {
	if value < min || value > max {
		return v.addf("%s must be between %d and %d, got: %d", name, min, max, value)
	}
	return v
}

// ValidateChoice checks value against the allowed names, ignoring case
func (v *FlagValidator) ValidateChoice(name, value string, choices []string) *FlagValidator {
	for _, choice := range choices {
		if strings.EqualFold(strings.TrimSpace(value), choice) {
			return v
		}
	}
	return v.addf("%s must be one of [%s], got: %s", name, strings.Join(choices, ", "), value)
}

// ValidateFile checks that a path names an existing regular file. An empty
// path only fails when required.
func (v *FlagValidator) ValidateFile(name, path string, required bool) *FlagValidator {
	if path == "" {
		if required {
			return v.addf("%s file is required", name)
		}
		return v
	}
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		return v.addf("%s file does not exist: %s", name, path)
	case err != nil:
		return v.addf("%s file is not readable: %v", name, err)
	case info.IsDir():
		return v.addf("%s file is a directory: %s", name, path)
	}
	return v
}

// Require checks that a string flag was given
func (v *FlagValidator) Require(name, value string) *FlagValidator {
	if strings.TrimSpace(value) == "" {
		return v.addf("--%s is required", name)
	}
	return v
}

// Count returns the number of problems found so far
func (v *FlagValidator) Count() int { return len(v.problems) }

// GetError joins every problem into one error, or returns nil
func (v *FlagValidator) GetError() error {
	switch len(v.problems) {
	case 0:
		return nil
	case 1:
		return fmt.Errorf("validation error: %s", v.problems[0])
	}
	return fmt.Errorf("validation errors:\n  - %s", strings.Join(v.problems, "\n  - "))
}
