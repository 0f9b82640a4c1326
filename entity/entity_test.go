package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type person struct {
	Entity
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

func TestMerge(t *testing.T) {
	t.Run("partial columns replace record values", func(t *testing.T) {
		record := person{Entity: Entity{ID: "p1"}, Name: "Ana", Email: "ana@example.org"}

		merged, err := Merge(record, Partial{"name": "Anabel"})
		require.NoError(t, err)
		assert.Equal(t, "Anabel", merged.Name)
		assert.Equal(t, "ana@example.org", merged.Email)
		assert.Equal(t, "p1", merged.ID)
	})

	t.Run("unknown columns are ignored", func(t *testing.T) {
		record := person{Entity: Entity{ID: "p1"}, Name: "Ana"}

		merged, err := Merge(record, Partial{"favorite_hymn": "Doxology"})
		require.NoError(t, err)
		assert.Equal(t, "Ana", merged.Name)
	})
}

func TestStrip(t *testing.T) {
	t.Run("removes the named fields without mutating the input", func(t *testing.T) {
		original := Partial{"id": "p1", "tenant_id": "t1", "name": "Ana"}

		stripped := Strip(original, "id", "tenant_id")
		assert.Equal(t, Partial{"name": "Ana"}, stripped)
		assert.Contains(t, original, "id")
	})

	t.Run("nil input stays nil", func(t *testing.T) {
		assert.Nil(t, Strip(nil, "id"))
	})
}

func TestEntityHelpers(t *testing.T) {
	now := time.Now()
	e := Entity{ID: "p1", TenantID: "t1", DeletedAt: &now}

	assert.Equal(t, "p1", e.GetID())
	assert.Equal(t, "t1", e.GetTenantID())
	assert.True(t, e.Deleted())
	assert.False(t, Entity{}.Deleted())
}
