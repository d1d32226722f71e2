// Package palette assigns stable display colors to speaker labels. A fixed
// roster covers the labels the authoring convention uses (話者1..話者3);
// anything else draws from a fallback palette in first-seen order. Untagged
// text renders in the neutral default and never consumes a palette slot.
package palette

import (
	"fmt"
	"strings"

	"golang.org/x/text/width"
)

// Color is a 24-bit RGB value.
type Color struct {
	R, G, B uint8
}

// Hex renders the color as upper-case RRGGBB, the form slide XML expects.
func (c Color) Hex() string {
	return fmt.Sprintf("%02X%02X%02X", c.R, c.G, c.B)
}

var (
	// Default colors untagged text. White keeps maximum contrast on the
	// black slide background.
	Default = Color{0xFF, 0xFF, 0xFF}
	// Indicator colors the page-indicator run.
	Indicator = Color{0x00, 0xB0, 0xF0}
)

// roster maps normalized known labels to their pre-assigned colors.
var roster = map[string]Color{
	"話者1": {0xFF, 0xFF, 0x00},
	"話者2": {0x00, 0xFF, 0xFF},
	"話者3": {0x00, 0xF9, 0x00},
}

// fallback supplies colors for labels outside the roster, cycling when
// exhausted. All entries stay readable on black.
var fallback = []Color{
	{0xFF, 0xA5, 0x00},
	{0xFF, 0x66, 0xCC},
	{0x66, 0xCC, 0xFF},
	{0x99, 0xFF, 0x66},
	{0xFF, 0xCC, 0x66},
	{0xCC, 0x99, 0xFF},
}

// Assignment is the speaker-to-color map for one conversion. Built once per
// document; identical label order always yields identical colors.
type Assignment struct {
	colors map[string]Color
}

// Assign builds the color assignment for the given labels in
// first-occurrence order. Empty labels are ignored.
func Assign(labels []string) *Assignment {
	assignment := &Assignment{colors: make(map[string]Color, len(labels))}
	next := 0
	for _, label := range labels {
		key := normalizeLabel(label)
		if key == "" {
			continue
		}
		if _, ok := assignment.colors[key]; ok {
			continue
		}
		if color, ok := roster[key]; ok {
			assignment.colors[key] = color
			continue
		}
		assignment.colors[key] = fallback[next%len(fallback)]
		next++
	}
	return assignment
}

// Lookup returns the color for a speaker label. Unassigned or empty labels
// get the neutral default.
func (a *Assignment) Lookup(label string) Color {
	if a == nil {
		return Default
	}
	if color, ok := a.colors[normalizeLabel(label)]; ok {
		return color
	}
	return Default
}

// normalizeLabel folds full-width ASCII to narrow and lower-cases, so
// 話者１ and 話者1 share a color, as do Alice and ALICE.
func normalizeLabel(label string) string {
	return strings.ToLower(width.Fold.String(strings.TrimSpace(label)))
}
