package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		expected   string
		wantStatus DateStatus
	}{
		{"datetime with seconds", "27/10/2025 14:30:00", "2025-10-27", DateParsed},
		{"datetime without seconds", "27/10/2025 14:30", "2025-10-27", DateParsed},
		{"date only", "27/10/2025", "2025-10-27", DateParsed},
		{"already iso", "2025-10-27", "2025-10-27", DateParsed},
		{"us format fallback", "10/27/2025", "2025-10-27", DateParsed},
		{"portuguese long form", "27 de outubro de 2025", "2025-10-27", DateParsed},
		{"long form mixed case", "3 de Março de 2024", "2024-03-03", DateParsed},
		{"long form inside prose", "Apresentado em 1 de janeiro de 2023.", "2023-01-01", DateParsed},
		{"unparseable passthrough", "not a date", "not a date", DateUnparsed},
		{"unknown month name", "10 de frimaire de 2025", "10 de frimaire de 2025", DateUnparsed},
		{"surrounding whitespace", "  27/10/2025  ", "2025-10-27", DateParsed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, status := ParseDate(tt.input)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, tt.wantStatus, status)
		})
	}
}

func TestNormalizeDate(t *testing.T) {
	assert.Nil(t, NormalizeDate(""))
	assert.Nil(t, NormalizeDate("   "))

	iso := NormalizeDate("27/10/2025")
	require.NotNil(t, iso)
	assert.Equal(t, "2025-10-27", *iso)

	raw := NormalizeDate("sessão ordinária")
	require.NotNil(t, raw)
	assert.Equal(t, "sessão ordinária", *raw)
}
