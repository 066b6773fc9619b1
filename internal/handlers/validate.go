package handlers

import (
	"strings"
	"unicode/utf8"
)

// Validation limits for form fields. Required-field and length checks run
// at the handler boundary so bad input never reaches storage.
const (
	maxTitleLen       = 300
	maxSlugLen        = 300
	maxContentLen     = 100_000
	maxExcerptLen     = 1_000
	maxNameLen        = 200
	maxDescriptionLen = 2_000
)

// validatePost checks post form inputs and returns the first error found.
func validatePost(title, slug, content string) string {
	if strings.TrimSpace(title) == "" {
		return "Title is required."
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "Title is too long (max 300 characters)."
	}
	if utf8.RuneCountInString(slug) > maxSlugLen {
		return "Slug is too long (max 300 characters)."
	}
	if strings.TrimSpace(content) == "" {
		return "Content is required."
	}
	if utf8.RuneCountInString(content) > maxContentLen {
		return "Content is too long (max 100,000 characters)."
	}
	return ""
}

// validateExcerpt checks the optional excerpt field.
func validateExcerpt(excerpt string) string {
	if utf8.RuneCountInString(excerpt) > maxExcerptLen {
		return "Excerpt is too long (max 1,000 characters)."
	}
	return ""
}

// validateCategory checks category form inputs and returns the first error found.
func validateCategory(name, slug, description string) string {
	if strings.TrimSpace(name) == "" {
		return "Name is required."
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return "Name is too long (max 200 characters)."
	}
	if utf8.RuneCountInString(slug) > maxSlugLen {
		return "Slug is too long (max 300 characters)."
	}
	if utf8.RuneCountInString(description) > maxDescriptionLen {
		return "Description is too long (max 2,000 characters)."
	}
	return ""
}
