package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCharacterFlattenPromotesDetails(t *testing.T) {
	created := time.Date(2024, 3, 18, 10, 0, 0, 0, time.UTC)
	c := Character{
		ID:        4,
		UserID:    9,
		Name:      "Thorin",
		Class:     "Fighter",
		Level:     5,
		Details:   Attributes{"race": "Dwarf", "strength": 17},
		CreatedAt: created,
		UpdatedAt: created,
	}

	got := c.Flatten()
	assert.Equal(t, "Dwarf", got["race"])
	assert.Equal(t, 17, got["strength"])
	assert.Equal(t, int64(4), got["id"])
	assert.Equal(t, int64(9), got["userId"])
	assert.Equal(t, created, got["createdAt"])
	assert.NotContains(t, got, "details")
}

func TestCharacterFlattenCoreFieldsWin(t *testing.T) {
	c := Character{
		ID:      1,
		UserID:  2,
		Name:    "Real",
		Class:   "Rogue",
		Level:   3,
		Details: Attributes{"name": "Fake", "userId": 99, "level": 20},
	}

	got := c.Flatten()
	assert.Equal(t, "Real", got["name"])
	assert.Equal(t, int64(2), got["userId"])
	assert.Equal(t, 3, got["level"])
	assert.Len(t, got, 7)
}

func TestCharacterFlattenNilDetails(t *testing.T) {
	got := Character{ID: 2}.Flatten()
	assert.Len(t, got, 7)
	assert.Contains(t, got, "class")
}

func TestDecodeAttributesKeepsIntegers(t *testing.T) {
	attrs, err := DecodeAttributes([]byte(`{"gold":9007199254740993,"speed":30,"weight":2.5,"tags":["a"],"name":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, 9007199254740993, attrs["gold"])
	assert.Equal(t, 30, attrs["speed"])
	assert.Equal(t, 2.5, attrs["weight"])
	assert.Equal(t, []any{"a"}, attrs["tags"])
	assert.Equal(t, "x", attrs["name"])
}

func TestDecodeAttributesEmpty(t *testing.T) {
	for _, raw := range []string{"", "  ", "null", "{}"} {
		attrs, err := DecodeAttributes([]byte(raw))
		require.NoError(t, err, raw)
		assert.NotNil(t, attrs, raw)
		assert.Empty(t, attrs, raw)
	}

	_, err := DecodeAttributes([]byte(`[1]`))
	assert.Error(t, err)
}

func TestNormalizeValueNested(t *testing.T) {
	v := NormalizeValue(map[string]any{
		"purse": []any{json.Number("9007199254740993"), json.Number("0.5")},
		"inner": map[string]any{"hp": json.Number("12")},
	})
	assert.Equal(t, map[string]any{
		"purse": []any{9007199254740993, 0.5},
		"inner": map[string]any{"hp": 12},
	}, v)
}
