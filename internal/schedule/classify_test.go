package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyEmptyIsUnset(t *testing.T) {
	c, err := Classify("", nil)
	require.NoError(t, err)
	assert.Equal(t, ActionUnset, c.Action)
}

func TestClassifyStop(t *testing.T) {
	c, err := Classify("STOP", nil)
	require.NoError(t, err)
	assert.Equal(t, ActionStop, c.Action)
	assert.Empty(t, c.NormalizedValue)
}

func TestClassifyContinue(t *testing.T) {
	c, err := Classify("CONTINUE", nil)
	require.NoError(t, err)
	assert.Equal(t, ActionEnqueue, c.Action)
	assert.Empty(t, c.NormalizedValue)
}

func TestClassifyNowNormalizesToStop(t *testing.T) {
	c, err := Classify("NOW", nil)
	require.NoError(t, err)
	assert.Equal(t, ActionEnqueue, c.Action)
	assert.Equal(t, "STOP", c.NormalizedValue)
}

func TestClassifyAtNormalizesToStop(t *testing.T) {
	c, err := Classify("AT:1700000000", nil)
	require.NoError(t, err)
	assert.Equal(t, ActionTimeline, c.Action)
	assert.EqualValues(t, 1700000000, c.At)
	assert.Equal(t, "STOP", c.NormalizedValue)
}

func TestClassifyAtMalformedErrors(t *testing.T) {
	_, err := Classify("AT:not-a-number", nil)
	assert.Error(t, err)
}

func TestClassifyRRuleFiresAfterReference(t *testing.T) {
	after := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	raw := "DTSTART:20260101T000000Z\nRRULE:FREQ=DAILY;COUNT=3"
	c, err := Classify(raw, &after)
	require.NoError(t, err)
	assert.Equal(t, ActionTimeline, c.Action)
	assert.Greater(t, c.At, after.Unix())
}

func TestClassifyRRuleExhaustedStops(t *testing.T) {
	after := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	raw := "DTSTART:20260101T000000Z\nRRULE:FREQ=DAILY;COUNT=3"
	c, err := Classify(raw, &after)
	require.NoError(t, err)
	assert.Equal(t, ActionStop, c.Action)
}

func TestClassifyRRuleUnparseableIsBad(t *testing.T) {
	c, err := Classify("this is not a schedule at all", nil)
	require.NoError(t, err)
	assert.Equal(t, ActionBad, c.Action)
}

func TestClassifyContinueWithBackoff(t *testing.T) {
	now := time.Unix(1700000000, 0)
	c := ClassifyContinueWithBackoff(30, now)
	assert.Equal(t, ActionTimeline, c.Action)
	assert.EqualValues(t, 1700000030, c.At)
}
