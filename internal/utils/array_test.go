package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFlexibleArray(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"", []string{}},
		{"   ", []string{}},
		{"{}", []string{}},
		{"[]", []string{}},
		{`["Small","Large"]`, []string{"Small", "Large"}},
		{`[1, 2.5, "3"]`, []string{"1", "2.5", "3"}},
		{`{Small,Large}`, []string{"Small", "Large"}},
		{`{"Extra Large","Small, cut"}`, []string{"Extra Large", "Small, cut"}},
		{`{"say \"hi\"",b}`, []string{`say "hi"`, "b"}},
		{`{a,NULL,,b}`, []string{"a", "b"}},
		{"https://a/x.png, https://a/y.png", []string{"https://a/x.png", "https://a/y.png"}},
		{"single", []string{"single"}},
		{`[not json`, []string{"[not json"}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ParseFlexibleArray(tt.input), "input %q", tt.input)
	}
}

func TestParseAlignedArrayKeepsEmptyItems(t *testing.T) {
	assert.Equal(t, []string{"a.png", "", "c.png"}, ParseAlignedArray(`{"a.png","","c.png"}`))
	assert.Equal(t, []string{"", "b.png"}, ParseAlignedArray(`["", "b.png"]`))
	assert.Equal(t, []string{"", "b"}, ParseAlignedArray(`{NULL,b}`))
	assert.Equal(t, []string{}, ParseAlignedArray("{}"))
	assert.Equal(t, []string{}, ParseAlignedArray(""))
}

func TestParseFlexibleNumberArray(t *testing.T) {
	assert.Equal(t, []float64{10, 12.5, 0}, ParseFlexibleNumberArray(`{10,12.5,abc}`))
	assert.Equal(t, []float64{1, 2}, ParseFlexibleNumberArray(`[1,"2"]`))
	assert.Equal(t, []float64{}, ParseFlexibleNumberArray(""))
}

func TestMarkupPrice(t *testing.T) {
	assert.Equal(t, 110.0, MarkupPrice(100, 10))
	assert.Equal(t, 21.99, MarkupPrice(19.99, 10))
	assert.Equal(t, 0.0, MarkupPrice(0, 10))
}
