package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDBOrdering_String(t *testing.T) {
	assert.Equal(t, "name ASC", DBOrdering{Field: "name", Ascending: true}.String())
	assert.Equal(t, "created_at DESC", DBOrdering{Field: "created_at"}.String())
}

func TestFilterOrderings(t *testing.T) {
	tests := []struct {
		name string
		in   []DBOrdering
		want []DBOrdering
	}{
		{name: "none"},
		{name: "all allowed", in: []DBOrdering{{Field: "name"}, {Field: "id", Ascending: true}}, want: []DBOrdering{{Field: "name"}, {Field: "id", Ascending: true}}},
		{name: "unknown dropped", in: []DBOrdering{{Field: "password"}, {Field: "id"}}, want: []DBOrdering{{Field: "id"}}},
		{name: "all dropped", in: []DBOrdering{{Field: "1=1; --"}}, want: []DBOrdering{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterOrderings(tt.in, "name", "id", "created_at"))
		})
	}
}

func TestCleanString(t *testing.T) {
	assert.Equal(t, "Ada", CleanString("  Ada\n"))
	assert.Equal(t, "ada", CleanString(" Ada ", true))
}
