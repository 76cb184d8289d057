package persistence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/project"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeStoreName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"P-100", "P-100"},
		{"  P 100 ", "P_100"},
		{"Café/Résidence", "Cafe_Residence"},
		{"a.b_c-d", "a.b_c-d"},
		{"../etc", ".._etc"},
		{"", "project"},
		{"..", "project"},
		{"项目", "__"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeStoreName(tt.in))
		})
	}
}

func TestStoreLocator_PathFor(t *testing.T) {
	l := NewStoreLocator("/stores")

	assert.Equal(t, filepath.Join("/stores", "P-100.db"), l.PathFor(project.StoreRef{Number: "P-100", ID: 3}))
	assert.Equal(t, filepath.Join("/stores", "project-3.db"), l.PathFor(project.StoreRef{ID: 3}))
	assert.Equal(t, filepath.Join("/stores", "project.db"), l.PathFor(project.StoreRef{}))

	// stable
	ref := project.StoreRef{Number: "Jobs #7"}
	assert.Equal(t, l.PathFor(ref), l.PathFor(ref))
}

func TestStoreLocator_ExistsAndList(t *testing.T) {
	dir := t.TempDir()
	l := NewStoreLocator(dir)
	ref := project.StoreRef{Number: "P-1"}

	assert.False(t, l.Exists(ref))
	require.NoError(t, os.WriteFile(l.PathFor(ref), nil, 0o600))
	assert.True(t, l.Exists(ref))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o600))
	paths, err := l.List()
	require.NoError(t, err)
	assert.Equal(t, []string{l.PathFor(ref)}, paths)
}
