package traps

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trapdeck-lab/trapdeck-mcp/internal/models"
)

func TestCatalog(t *testing.T) {
	t.Run("GetKnownType", func(t *testing.T) {
		def, ok := Get(models.TrapTypeHoneypot)
		require.True(t, ok)
		assert.Equal(t, models.TrapTypeHoneypot, def.Type)
		assert.Equal(t, uint64(150000), def.BaseGas)
	})

	t.Run("GetUnknownType", func(t *testing.T) {
		_, ok := Get("Mousetrap")
		assert.False(t, ok)
	})

	t.Run("ListCoversEveryType", func(t *testing.T) {
		defs := List()
		require.Len(t, defs, 4)

		seen := make(map[models.TrapType]bool)
		for _, def := range defs {
			seen[def.Type] = true
			assert.NotEmpty(t, def.Name)
			assert.NotEmpty(t, def.Description)
			assert.Positive(t, def.BaseGas)
			assert.True(t, strings.HasPrefix(def.CreationBytecode, "0x"))
		}
		assert.True(t, seen[models.TrapTypeHoneypot])
		assert.True(t, seen[models.TrapTypeMonitoring])
		assert.True(t, seen[models.TrapTypeReentrancyGuard])
		assert.True(t, seen[models.TrapTypeFlashLoanDetector])
	})
}
