package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSubjects(t *testing.T) {
	t.Run("case and word cap", func(t *testing.T) {
		got := NormalizeSubjects([]string{
			"trânsito de caminhões",
			"INFRAESTRUTURA URBANA e mobilidade extra longa demais aqui",
			"saúde pública",
		})
		assert.Equal(t, []string{
			"Trânsito de caminhões",
			"Infraestrutura urbana e mobilidade extra longa demais",
			"Saúde pública",
		}, got)
	})

	t.Run("fewer than floor collapses to empty", func(t *testing.T) {
		assert.Nil(t, NormalizeSubjects([]string{"educação", "saúde"}))
	})

	t.Run("blank entries do not count", func(t *testing.T) {
		assert.Nil(t, NormalizeSubjects([]string{"educação", "  ", "", "saúde"}))
	})

	t.Run("list capped at max", func(t *testing.T) {
		raw := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
		got := NormalizeSubjects(raw)
		assert.Len(t, got, MaxSubjects)
		assert.Equal(t, "A", got[0])
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Nil(t, NormalizeSubjects(nil))
	})
}
