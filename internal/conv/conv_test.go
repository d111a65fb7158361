package conv

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsInt64(t *testing.T) {
	assert.EqualValues(t, 4, AsInt64(int64(4), -1))
	assert.EqualValues(t, 4, AsInt64(4, -1))
	assert.EqualValues(t, 4, AsInt64(float64(4), -1))
	assert.EqualValues(t, 4, AsInt64(json.Number("4"), -1))
	assert.EqualValues(t, 4, AsInt64("4", -1))
	assert.EqualValues(t, math.MaxInt64, AsInt64(json.Number("9223372036854775807"), -1))

	assert.EqualValues(t, -1, AsInt64(nil, -1))
	assert.EqualValues(t, -1, AsInt64("nope", -1))
	assert.EqualValues(t, -1, AsInt64(true, -1))
}
