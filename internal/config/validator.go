package config

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"sociogrid/internal/logging"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "grid.default_page_size")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError
	errs = append(errs, c.validateGrid()...)
	errs = append(errs, c.validateCSV()...)
	errs = append(errs, c.validateRemote()...)
	errs = append(errs, c.validateLogging()...)
	return errs
}

func (c *Config) validateGrid() []ValidationError {
	var errs []ValidationError
	g := c.Grid

	if len(g.PageSizes) == 0 {
		errs = append(errs, ValidationError{
			Field:   "grid.page_sizes",
			Value:   g.PageSizes,
			Message: "must list at least one page size",
		})
	}
	seen := map[int]bool{}
	for _, s := range g.PageSizes {
		if s <= 0 {
			errs = append(errs, ValidationError{
				Field:   "grid.page_sizes",
				Value:   s,
				Message: "page sizes must be positive",
			})
		}
		if seen[s] {
			errs = append(errs, ValidationError{
				Field:   "grid.page_sizes",
				Value:   s,
				Message: "page sizes must be unique",
			})
		}
		seen[s] = true
	}
	if len(g.PageSizes) > 0 && !slices.Contains(g.PageSizes, g.DefaultPageSize) {
		errs = append(errs, ValidationError{
			Field:   "grid.default_page_size",
			Value:   g.DefaultPageSize,
			Message: fmt.Sprintf("must be one of %v", g.PageSizes),
		})
	}
	if g.MaxCellWidth < 0 {
		errs = append(errs, ValidationError{
			Field:   "grid.max_cell_width",
			Value:   g.MaxCellWidth,
			Message: "must be zero or positive",
		})
	}
	return errs
}

func (c *Config) validateCSV() []ValidationError {
	d := c.CSV.Delimiter
	switch d {
	case "", "auto", "tab", `\t`:
		return nil
	}
	if utf8.RuneCountInString(d) != 1 || d == "\n" || d == "\r" || d == `"` {
		return []ValidationError{{
			Field:   "csv.delimiter",
			Value:   d,
			Message: `must be "auto", "tab" or a single character other than a quote or newline`,
		}}
	}
	return nil
}

func (c *Config) validateRemote() []ValidationError {
	var errs []ValidationError
	if c.Remote.APITimeoutSeconds <= 0 {
		errs = append(errs, ValidationError{
			Field:   "remote.api_timeout_seconds",
			Value:   c.Remote.APITimeoutSeconds,
			Message: "must be positive",
		})
	}
	if len(c.Grid.PageSizes) > 0 && !slices.Contains(c.Grid.PageSizes, c.Remote.PageSize) {
		errs = append(errs, ValidationError{
			Field:   "remote.page_size",
			Value:   c.Remote.PageSize,
			Message: fmt.Sprintf("must be one of %v", c.Grid.PageSizes),
		})
	}
	return errs
}

func (c *Config) validateLogging() []ValidationError {
	if !logging.IsValidLevel(c.Logging.Level) {
		return []ValidationError{{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of %v", logging.ValidLevels()),
		}}
	}
	return nil
}
