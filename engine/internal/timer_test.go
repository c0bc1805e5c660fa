package internal

import (
	"errors"
	"testing"
	"time"

	"github.com/monostax/bpmflow/engine"
	"github.com/senseyeio/duration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShiftBack(t *testing.T) {
	assert := assert.New(t)

	base := time.Date(2026, 3, 15, 12, 30, 0, 0, time.UTC)

	d, err := duration.ParseISO8601("P1M")
	require.NoError(t, err)
	assert.Equal(time.Date(2026, 2, 15, 12, 30, 0, 0, time.UTC), shiftBack(d, base))

	d, err = duration.ParseISO8601("P1W2DT3H30M15S")
	require.NoError(t, err)
	assert.Equal(time.Date(2026, 3, 6, 8, 59, 45, 0, time.UTC), shiftBack(d, base))

	d, err = duration.ParseISO8601("PT45M")
	require.NoError(t, err)
	assert.Equal(time.Date(2026, 3, 15, 11, 45, 0, 0, time.UTC), shiftBack(d, base))
}

func TestCoerceTime(t *testing.T) {
	assert := assert.New(t)

	moment := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	actual, err := coerceTime(moment)
	require.NoError(t, err)
	assert.Equal(moment, actual)

	actual, err = coerceTime(&moment)
	require.NoError(t, err)
	assert.Equal(moment, actual)

	actual, err = coerceTime("2026-08-28T10:00:00Z")
	require.NoError(t, err)
	assert.Equal(moment, actual)

	actual, err = coerceTime("2026-08-28 10:00:00")
	require.NoError(t, err)
	assert.Equal(moment, actual)

	actual, err = coerceTime("2026-08-28")
	require.NoError(t, err)
	assert.Equal(time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC), actual)

	_, err = coerceTime("not a datetime")
	assert.Error(err)
	_, err = coerceTime(nil)
	assert.Error(err)
	_, err = coerceTime((*time.Time)(nil))
	assert.Error(err)
	_, err = coerceTime(42)
	assert.Error(err)
}

func TestErrorCodeOf(t *testing.T) {
	assert := assert.New(t)

	code, message := errorCodeOf(engine.ProcessError{Code: "OUT_OF_STOCK", Message: "no stock left"})
	assert.Equal("OUT_OF_STOCK", code)
	assert.Equal("no stock left", message)

	code, _ = errorCodeOf(engine.EvaluationError{Expression: "a +", Err: errors.New("parse error")})
	assert.Equal("EVALUATION", code)

	code, message = errorCodeOf(engine.Error{Type: engine.ErrorProcessModel, Detail: "element is invalid"})
	assert.Equal("PROCESS_MODEL", code)
	assert.Equal("element is invalid", message)

	code, _ = errorCodeOf(errors.New("boom"))
	assert.Equal("SYSTEM", code)
}
