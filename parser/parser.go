// Package parser normalizes text scraped from rendered pages.
package parser

import (
	"regexp"
	"strings"
)

var (
	numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)
	digitsPattern = regexp.MustCompile(`\d+`)
)

// NormalizeText folds non-breaking spaces and whitespace runs into single
// spaces, trims, and lowercases. Used to compare region names.
func NormalizeText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// ExtractNumber returns the first integer or decimal found in s after the
// first comma is turned into a decimal point. Spaces between digit groups are
// not removed, so "1 234,56" yields "1".
func ExtractNumber(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.Replace(s, ",", ".", 1)
	return numberPattern.FindString(s)
}

// Digits concatenates every run of digits in s.
func Digits(s string) string {
	if s == "" {
		return ""
	}
	return strings.Join(digitsPattern.FindAllString(s, -1), "")
}
