package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRowResolvesAddedFieldOnRead(t *testing.T) {
	log := &SchemaDeltaLog{}
	row := NewRow(map[string]Datacell{"name": NewStr("sayan")}, log.CurrentVersion())

	log.AddField("bio", NewStr(""))

	var seen map[string]Datacell
	row.View(log, func(fields map[string]Datacell) {
		seen = fields
	})
	assert.Equal(t, "sayan", seen["name"].Str())
	assert.Equal(t, "", seen["bio"].Str())
}

func TestRowResolvesRemovedFieldOnRead(t *testing.T) {
	log := &SchemaDeltaLog{}
	row := NewRow(map[string]Datacell{"name": NewStr("sayan"), "legacy": NewStr("x")}, log.CurrentVersion())

	log.RemoveField("legacy")

	var seen map[string]Datacell
	row.View(log, func(fields map[string]Datacell) {
		seen = fields
	})
	_, ok := seen["legacy"]
	assert.False(t, ok)
}

func TestPrimaryIndexInsertIsSingleWriterPerKey(t *testing.T) {
	idx := &PrimaryIndex{}
	row1 := NewRow(map[string]Datacell{}, 0)
	row2 := NewRow(map[string]Datacell{}, 0)

	assert.True(t, idx.Insert("k", row1))
	assert.False(t, idx.Insert("k", row2))

	got, ok := idx.Get("k")
	assert.True(t, ok)
	assert.Same(t, row1, got)
}
