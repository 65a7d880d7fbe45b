package compare

import (
	"fmt"
	"testing"

	"storefront-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(id int64) models.Product {
	return models.Product{ID: id, Name: fmt.Sprintf("product-%d", id)}
}

func TestAddUpToLimit(t *testing.T) {
	c := New()

	for i := int64(1); i <= Limit; i++ {
		assert.True(t, c.Add(product(i)))
	}
	require.Equal(t, Limit, c.Len())
}

func TestAddBeyondLimitRejected(t *testing.T) {
	c := New()

	for i := int64(1); i <= Limit; i++ {
		require.True(t, c.Add(product(i)))
	}

	assert.False(t, c.Add(product(5)))
	assert.Equal(t, Limit, c.Len())
	assert.False(t, c.Contains(5))
}

func TestAddDuplicateRejected(t *testing.T) {
	c := New()

	require.True(t, c.Add(product(1)))
	assert.False(t, c.Add(product(1)))
	assert.Equal(t, 1, c.Len())
}

func TestRemove(t *testing.T) {
	c := New()

	c.Add(product(1))
	c.Add(product(2))

	c.Remove(1)
	assert.False(t, c.Contains(1))
	assert.True(t, c.Contains(2))

	// Unknown IDs are a no-op.
	c.Remove(42)
	assert.Equal(t, 1, c.Len())
}

func TestRemoveThenAddFreesCapacity(t *testing.T) {
	c := New()

	for i := int64(1); i <= Limit; i++ {
		require.True(t, c.Add(product(i)))
	}

	c.Remove(2)
	assert.True(t, c.Add(product(5)))
	assert.Equal(t, Limit, c.Len())
}

func TestClear(t *testing.T) {
	c := New()

	c.Add(product(1))
	c.Add(product(2))
	c.Clear()

	assert.Equal(t, 0, c.Len())
	assert.False(t, c.Contains(1))
}

func TestVisibilityIndependentOfMembership(t *testing.T) {
	c := New()

	c.Add(product(1))
	assert.False(t, c.IsOpen())

	c.Open()
	assert.True(t, c.IsOpen())
	assert.Equal(t, 1, c.Len())

	c.Close()
	assert.False(t, c.IsOpen())
	assert.Equal(t, 1, c.Len())
}

func TestRestoreEnforcesInvariants(t *testing.T) {
	c := New()

	c.Restore([]models.Product{
		product(1), product(1), product(2), product(3), product(4), product(5),
	})

	assert.Equal(t, Limit, c.Len())
	assert.True(t, c.Contains(1))
	assert.False(t, c.Contains(5))
}
