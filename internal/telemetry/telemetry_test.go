package telemetry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	inner := &TestAPI{}
	scoped := NewScopedAPI("pipeline", inner)

	scoped.ReportBroken("db.query", errors.New("boom"), 3)
	scoped.ReportWarning("session", "expired")
	scoped.ReportDebug("checked course", "id", 7)
	scoped.ReportCount("new-records", 4)

	broken := inner.Reports("broken", "")
	require.Len(t, broken, 1)
	assert.Equal(t, "pipeline: db.query", broken[0].Id)
	assert.Len(t, broken[0].Params, 2)

	assert.Len(t, inner.Reports("warning", "pipeline: session"), 1)
	assert.Len(t, inner.Reports("debug", "checked course"), 1)

	counts := inner.Reports("count", "new-records")
	require.Len(t, counts, 1)
	assert.Equal(t, []any{int64(4)}, counts[0].Params)
}

func TestTestAPIFilters(t *testing.T) {
	tel := &TestAPI{}
	tel.ReportWarning("a.one")
	tel.ReportWarning("b.two")
	tel.ReportBroken("a.three")

	assert.Len(t, tel.Reports("warning", "a."), 1)
	assert.Len(t, tel.Reports("warning", ""), 2)
	assert.Empty(t, tel.Reports("debug", ""))
	assert.Contains(t, tel.String(), "broken a.three")
}
