package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitAuthor(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantName  string
		wantParty string // empty means nil party
	}{
		{"honorific and party", "Ver. João Silva (PT)", "João Silva", "PT"},
		{"no party", "Maria Souza", "Maria Souza", ""},
		{"party lower-cased in source", "Ana Lima (psol)", "Ana Lima", "PSOL"},
		{"full honorific", "Vereador Carlos Mota (MDB)", "Carlos Mota", "MDB"},
		{"feminine honorific", "Vereadora Rita Nunes (PP)", "Rita Nunes", "PP"},
		{"party with spaces", "José Dias ( PDT )", "José Dias", "PDT"},
		{"whitespace only trimmed", "  Pedro Paz  ", "Pedro Paz", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			author := SplitAuthor(tt.input)
			assert.Equal(t, tt.wantName, author.Name)
			if tt.wantParty == "" {
				assert.Nil(t, author.Party)
			} else {
				require.NotNil(t, author.Party)
				assert.Equal(t, tt.wantParty, *author.Party)
			}
		})
	}
}

func TestSplitAuthorsSkipsBlanks(t *testing.T) {
	authors := SplitAuthors([]string{"Ver. João Silva (PT)", "   ", ""})
	require.Len(t, authors, 1)
	assert.Equal(t, "João Silva", authors[0].Name)
}
