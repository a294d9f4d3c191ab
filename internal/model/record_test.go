package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func completeRecord() *RawRecord {
	return &RawRecord{
		Source: Source{
			Slug: "proposicoescidrj",
			Body: "Câmara Municipal do Rio de Janeiro",
			Tier: TierMunicipal,
		},
		Type:      "Projeto de Lei",
		Number:    "123",
		Year:      "2024",
		OriginURL: "https://example.org/projeto/123",
	}
}

func TestMissingFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RawRecord)
		missing []string
	}{
		{
			name:    "complete record",
			mutate:  func(r *RawRecord) {},
			missing: nil,
		},
		{
			name:    "missing body",
			mutate:  func(r *RawRecord) { r.Source.Body = "" },
			missing: []string{"casa_legislativa"},
		},
		{
			name:    "missing type",
			mutate:  func(r *RawRecord) { r.Type = "" },
			missing: []string{"tipo"},
		},
		{
			name:    "missing number",
			mutate:  func(r *RawRecord) { r.Number = "" },
			missing: []string{"numero"},
		},
		{
			name:    "missing year",
			mutate:  func(r *RawRecord) { r.Year = "" },
			missing: []string{"ano"},
		},
		{
			name:    "missing url",
			mutate:  func(r *RawRecord) { r.OriginURL = "" },
			missing: []string{"url"},
		},
		{
			name: "multiple missing",
			mutate: func(r *RawRecord) {
				r.Type = ""
				r.OriginURL = ""
			},
			missing: []string{"tipo", "url"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := completeRecord()
			tt.mutate(rec)
			assert.Equal(t, tt.missing, rec.MissingFields())
			assert.Equal(t, len(tt.missing) == 0, rec.IsComplete())
		})
	}
}

func TestNaturalKey(t *testing.T) {
	rec := completeRecord()
	assert.Equal(t, "Projeto de Lei 123/2024", rec.NaturalKey())
}
