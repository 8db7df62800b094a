package templates

import (
	"sort"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/personapanel/internal/core/model"
)

func TestEmbeddedTemplatesLoad(t *testing.T) {
	all, err := All()
	require.NoError(t, err)
	require.NotEmpty(t, all)

	ids := make([]string, len(all))
	for i, tpl := range all {
		ids[i] = tpl.ID
		assert.NotEmpty(t, tpl.Name, tpl.ID)
		assert.NotEmpty(t, tpl.Dimensions, tpl.ID)
	}
	assert.True(t, sort.StringsAreSorted(ids))
	assert.Contains(t, ids, "customer")
}

func TestGet(t *testing.T) {
	tpl, err := Get("customer")
	require.NoError(t, err)
	assert.Equal(t, "Customer", tpl.Name)

	et := tpl.EntityType()
	age, ok := et.Dimension("AGE")
	require.True(t, ok)
	assert.Equal(t, model.DimensionNumerical, age.Type)
	require.NotNil(t, age.Max)
	assert.Equal(t, 90.0, *age.Max)

	_, err = Get("dragon")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestAllReturnsCopies(t *testing.T) {
	first, err := All()
	require.NoError(t, err)
	first[0].Name = "changed"

	second, err := All()
	require.NoError(t, err)
	assert.NotEqual(t, "changed", second[0].Name)
}

func TestLoadFromFS_Invalid(t *testing.T) {
	tests := []struct {
		name string
		fs   fstest.MapFS
	}{
		{name: "empty", fs: fstest.MapFS{}},
		{
			name: "id mismatch",
			fs: fstest.MapFS{"data/a.yaml": {Data: []byte("id: b\nname: B\n")}},
		},
		{
			name: "unknown field",
			fs: fstest.MapFS{"data/a.yaml": {Data: []byte("id: a\nname: A\ncolour: red\n")}},
		},
		{
			name: "categorical without options",
			fs: fstest.MapFS{"data/a.yaml": {Data: []byte("id: a\nname: A\ndimensions:\n  - name: x\n    type: categorical\n")}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFS(tt.fs)
			assert.Error(t, err)
		})
	}
}

func TestLoadFromFS_NormalizesTypes(t *testing.T) {
	fs := fstest.MapFS{"data/a.yaml": {Data: []byte("id: a\nname: A\ndimensions:\n  - name: flag\n    type: Boolean\n")}}

	all, err := LoadFromFS(fs)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, model.DimensionBoolean, all[0].Dimensions[0].Type)
}
