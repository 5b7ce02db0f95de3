package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressPercentage(t *testing.T) {
	assert.Equal(t, 50.0, ProgressSample{BytesSent: 50, TotalBytes: 100}.Percentage())
	assert.Equal(t, 0.0, ProgressSample{BytesSent: 50, TotalBytes: 0}.Percentage())
	assert.Equal(t, 100.0, ProgressSample{BytesSent: 7, TotalBytes: 7}.Percentage())
}

func TestWithResolutionDoesNotMutateOriginal(t *testing.T) {
	base := Succeeded(ObjectRef{ID: "id", Name: "a.txt", WebLink: "https://example/a"})
	tagged := base.WithResolution(DecisionReplace)

	assert.Nil(t, base.Resolution)
	require.NotNil(t, tagged.Resolution)
	assert.Equal(t, DecisionReplace, *tagged.Resolution)
	assert.Equal(t, "id", tagged.ObjectID)
}

func TestCancelledIsNotFailed(t *testing.T) {
	r := Cancelled()
	assert.Equal(t, OutcomeCancelled, r.Outcome)
	assert.False(t, r.IsSuccess())
	assert.Equal(t, "cancelled", r.Outcome.String())
}
