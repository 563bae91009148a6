package streamjson

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconstructCompleteObject(t *testing.T) {
	got := Reconstruct(`{"explanation":"Gravity pulls things down.","concepts":["gravity"]}`)
	assert.Equal(t, "Gravity pulls things down.", got.Explanation)
	assert.Equal(t, []string{"gravity"}, got.Concepts)
}

func TestReconstructIsIdempotent(t *testing.T) {
	buffer := `{"explanation":"x","concepts":["a","b"]}`
	first := Reconstruct(buffer)
	second := Reconstruct(buffer)
	assert.Equal(t, first, second)
}

func TestReconstructPartialFramesNeverFail(t *testing.T) {
	frames := []string{`{"expla`, `nation": "Hel`, `lo world", "concepts": []}`}

	var buffer strings.Builder
	for _, frame := range frames {
		buffer.WriteString(frame)
		got := Reconstruct(buffer.String())
		require.NotNil(t, got.Concepts)
	}

	final := Reconstruct(buffer.String())
	assert.Equal(t, "Hello world", final.Explanation)
	assert.Empty(t, final.Concepts)
}

func TestReconstructPlainTextFallback(t *testing.T) {
	buffer := "Explanation without any JSON wrapper at all."
	got := Reconstruct(buffer)
	assert.Equal(t, buffer, got.Explanation)
	assert.Empty(t, got.Concepts)
}

func TestReconstructStripsCodeFences(t *testing.T) {
	got := Reconstruct("```json\n{\"explanation\":\"x\",\"concepts\":[\"y\"]}\n```")
	assert.Equal(t, "x", got.Explanation)
	assert.Equal(t, []string{"y"}, got.Concepts)
}

func TestReconstructRepairsTrailingCommas(t *testing.T) {
	got := Reconstruct(`{"explanation":"x","concepts":["y",]}`)
	assert.Equal(t, "x", got.Explanation)
	assert.Equal(t, []string{"y"}, got.Concepts)
}

func TestReconstructExtractsObjectFromProse(t *testing.T) {
	got := Reconstruct(`Here is the result: {"explanation":"x","concepts":[]} hope that helps!`)
	assert.Equal(t, "x", got.Explanation)
	assert.Empty(t, got.Concepts)
}

func TestReconstructMissingFields(t *testing.T) {
	buffer := `{"answer":"not the right key"}`
	got := Reconstruct(buffer)
	assert.Equal(t, buffer, got.Explanation)
	assert.Empty(t, got.Concepts)
}

func TestReconstructNonArrayConcepts(t *testing.T) {
	got := Reconstruct(`{"explanation":"x","concepts":"gravity"}`)
	assert.Equal(t, "x", got.Explanation)
	assert.Empty(t, got.Concepts)
}

func TestReconstructDropsNonStringConcepts(t *testing.T) {
	got := Reconstruct(`{"explanation":"x","concepts":["a",1,null,"b","a"]}`)
	assert.Equal(t, []string{"a", "b"}, got.Concepts)
}

func TestReconstructEmptyBuffer(t *testing.T) {
	got := Reconstruct("")
	assert.Equal(t, "", got.Explanation)
	assert.Empty(t, got.Concepts)
}

func TestReconstructNullExplanation(t *testing.T) {
	buffer := `{"explanation":null,"concepts":["a"]}`
	got := Reconstruct(buffer)
	assert.Equal(t, buffer, got.Explanation)
	assert.Equal(t, []string{"a"}, got.Concepts)
}
