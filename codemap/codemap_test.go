package codemap

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/z33toolchain/z33/internal/uuid"
)

func TestNew(t *testing.T) {
	assert := assert.New(t)

	cm := New("hello world")
	assert.Equal("hello world", cm.Modified)
	assert.Len(cm.Segments, 1)
	assert.True(cm.Segments[0].Direct)
}

func TestConvertToOriginal_DirectSegment(t *testing.T) {
	assert := assert.New(t)

	cm := New("abcdef")
	for i := range 6 {
		result, ok := cm.ConvertToOriginal(i)
		assert.True(ok)
		assert.Equal(OneToOne, result.Kind)
		assert.Equal(i, result.One)
	}
}

func TestConvertToModified_Bijection(t *testing.T) {
	assert := assert.New(t)

	cm := New("abcdef")
	for i := range 6 {
		modified, ok := cm.ConvertToModified(i)
		assert.True(ok)

		result, ok := cm.ConvertToOriginal(modified)
		assert.True(ok)
		assert.Equal(OneToOne, result.Kind)
		assert.Equal(i, result.One)
	}
}

func TestReplaceCharacters(t *testing.T) {
	assert := assert.New(t)

	cm := New("FOO bar")
	cm.ReplaceCharacters(Range{0, 3}, "10")
	assert.Equal("10 bar", cm.Modified)

	result, ok := cm.ConvertToOriginal(0)
	assert.True(ok)
	assert.Equal(OneToRange, result.Kind)
	assert.Equal(Range{0, 3}, result.Range)

	// Text after the edit shifted left by one character but still
	// maps one-to-one back to its original position.
	result, ok = cm.ConvertToOriginal(3)
	assert.True(ok)
	assert.Equal(OneToOne, result.Kind)
	assert.Equal(3, result.One)
}

func TestInsertFileContents(t *testing.T) {
	assert := assert.New(t)

	cm := New("before AFTER")
	fileUUID := uuid.New()
	cm.InsertFileContents("INSERTED", fileUUID, Range{7, 12})

	assert.Equal("before INSERTED", cm.Modified)

	result, ok := cm.ConvertToOriginal(8)
	assert.True(ok)
	assert.Equal(OneToFileOffset, result.Kind)
	assert.Equal(fileUUID, result.ExternalFile)
}

func TestSplitSegment(t *testing.T) {
	assert := assert.New(t)

	cm := New("abcdef")
	cm.SplitSegment(3)
	assert.Len(cm.Segments, 2)
	assert.Equal(Range{0, 3}, cm.Segments[0].Current)
	assert.Equal(Range{3, 6}, cm.Segments[1].Current)

	result, ok := cm.ConvertToOriginal(4)
	assert.True(ok)
	assert.Equal(OneToOne, result.Kind)
	assert.Equal(4, result.One)
}

func TestSplitSegment_NonDirectPanics(t *testing.T) {
	assert := assert.New(t)

	cm := New("abcdef")
	cm.ReplaceCharacters(Range{0, 6}, "xy")

	assert.Panics(func() {
		cm.SplitSegment(1)
	})
}
