package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carolinaborgesoficial/assessorai-crawler/internal/model"
)

func completeRaw() *model.RawRecord {
	return &model.RawRecord{
		Source: model.Source{
			Slug:         "proposicoescidrj",
			Body:         "Câmara Municipal do Rio de Janeiro",
			Tier:         model.TierMunicipal,
			State:        "RJ",
			Municipality: "Rio de Janeiro",
		},
		Type:      "Projeto de Lei",
		Number:    "123",
		Year:      "2024",
		OriginURL: "https://aplicnt.camara.rj.gov.br/projeto/123.pdf",
		ScrapedAt: "2025-10-27T14:30:00Z",
	}
}

func TestValidateComplete(t *testing.T) {
	assert.NoError(t, Validate(completeRaw()))
}

func TestValidateMissingFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*model.RawRecord)
		missing []string
	}{
		{"no body", func(r *model.RawRecord) { r.Source.Body = "" }, []string{"casa_legislativa"}},
		{"no type", func(r *model.RawRecord) { r.Type = "" }, []string{"tipo"}},
		{"no number", func(r *model.RawRecord) { r.Number = "" }, []string{"numero"}},
		{"no year", func(r *model.RawRecord) { r.Year = "" }, []string{"ano"}},
		{"no url", func(r *model.RawRecord) { r.OriginURL = "" }, []string{"url"}},
		{
			"several at once",
			func(r *model.RawRecord) { r.Number = ""; r.Year = ""; r.OriginURL = "" },
			[]string{"numero", "ano", "url"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := completeRaw()
			tt.mutate(raw)

			err := Validate(raw)
			require.Error(t, err)

			var missing *MissingFieldsError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, tt.missing, missing.Missing)
		})
	}
}
