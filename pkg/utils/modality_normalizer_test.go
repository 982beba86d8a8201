package utils_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zatekoja/Radiologyorderplatformdesign/backend/pkg/utils"
)

func TestNormalizeModality(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
	}{
		{"MRI", "MRI"},
		{"mri", "MRI"},
		{"MR", "MRI"},
		{"magnetic resonance", "MRI"},
		{"xray", "X-RAY"},
		{"X Ray", "X-RAY"},
		{"plain film", "X-RAY"},
		{"CAT scan", "CT"},
		{"ct angiography", "CTA"},
		{"sonogram", "US"},
		{"ULTRASOUND", "US"},
		{"pet-ct", "PET"},
		{"PET   CT", "PET"},
		{"mammo", "MAMMOGRAPHY"},
		{"dexa", "DXA"},
		{"fluoro", "FLUOROSCOPY"},
		{"  nuclear   medicine  ", "NM"},

		// unknown modalities pass through cleaned
		{"echo", "ECHO"},
		{"  something   new ", "SOMETHING NEW"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.expected, utils.NormalizeModality(tt.raw))
		})
	}
}
