package utils

import (
	"regexp"
	"strings"
)

// modalityAliases maps common spellings and abbreviations of imaging
// modalities onto a canonical name
var modalityAliases = map[string]string{
	"XRAY":                 "X-RAY",
	"X RAY":                "X-RAY",
	"RADIOGRAPH":           "X-RAY",
	"PLAIN FILM":           "X-RAY",
	"CAT SCAN":             "CT",
	"COMPUTED TOMOGRAPHY":  "CT",
	"CT ANGIOGRAPHY":       "CTA",
	"MR":                   "MRI",
	"MAGNETIC RESONANCE":   "MRI",
	"MR ANGIOGRAPHY":       "MRA",
	"SONOGRAM":             "US",
	"ULTRASOUND":           "US",
	"SONOGRAPHY":           "US",
	"NUCLEAR MEDICINE":     "NM",
	"PET SCAN":             "PET",
	"PET CT":               "PET",
	"PET-CT":               "PET",
	"MAMMOGRAM":            "MAMMOGRAPHY",
	"MAMMO":                "MAMMOGRAPHY",
	"DEXA":                 "DXA",
	"BONE DENSITY":         "DXA",
	"FLUORO":               "FLUOROSCOPY",
}

var whitespacePattern = regexp.MustCompile(`\s+`)

// NormalizeModality maps a free-text modality string onto its canonical
// upper-case form. Unknown modalities pass through cleaned but unmapped.
func NormalizeModality(raw string) string {
	cleaned := strings.ToUpper(strings.TrimSpace(raw))
	cleaned = whitespacePattern.ReplaceAllString(cleaned, " ")
	if cleaned == "" {
		return ""
	}

	if canonical, ok := modalityAliases[cleaned]; ok {
		return canonical
	}
	return cleaned
}
