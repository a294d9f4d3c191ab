package archive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePaths(t *testing.T) {
	t.Run("with document", func(t *testing.T) {
		paths := ResolvePaths("RJ", "Rio de Janeiro", "proposicoescidrj", "projeto-de-lei-123-2024", true)

		require.NotNil(t, paths.Original)
		assert.Equal(t, "rj/rio-de-janeiro/proposicoescidrj/projeto-de-lei-123-2024.pdf", *paths.Original)
		assert.Equal(t, "rj/rio-de-janeiro/proposicoescidrj/projeto-de-lei-123-2024.md", paths.Text)
	})

	t.Run("without document", func(t *testing.T) {
		paths := ResolvePaths("RJ", "Rio de Janeiro", "proposicoescidrj", "projeto-de-lei-123-2024", false)

		assert.Nil(t, paths.Original)
		assert.Equal(t, "rj/rio-de-janeiro/proposicoescidrj/projeto-de-lei-123-2024.md", paths.Text)
	})

	t.Run("deterministic across calls", func(t *testing.T) {
		a := ResolvePaths("ES", "Linhares", "proposicoeslinhares", "projeto-de-lei-9-2025", true)
		b := ResolvePaths("ES", "Linhares", "proposicoeslinhares", "projeto-de-lei-9-2025", true)

		assert.Equal(t, a.Text, b.Text)
		require.NotNil(t, a.Original)
		require.NotNil(t, b.Original)
		assert.Equal(t, *a.Original, *b.Original)
	})

	t.Run("state assembly without municipality", func(t *testing.T) {
		paths := ResolvePaths("sp", "", "proposicoessp", "pl-100-2020", false)
		assert.Equal(t, "sp/proposicoessp/pl-100-2020.md", paths.Text)
	})

	t.Run("federal source without state", func(t *testing.T) {
		paths := ResolvePaths("", "", "proposicoescn", "pl-4500-2019", false)
		assert.Equal(t, "proposicoescn/pl-4500-2019.md", paths.Text)
	})
}
