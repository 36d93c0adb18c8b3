package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/Zhima-Mochi/minishop-settlement/internal/domain/inventory"
)

func seedInventory(t *testing.T, repo *InventoryRepository, stock int) {
	t.Helper()
	p, err := domain.NewProduct("p1", "Shirt", []domain.SizeBucket{{Size: "M", Stock: stock}})
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), p))
}

func TestDeductStock(t *testing.T) {
	repo := NewInventoryRepository()
	seedInventory(t, repo, 5)

	require.NoError(t, repo.DeductStock(context.Background(), "p1", "M", 2))

	p, err := repo.GetByProductID(context.Background(), "p1")
	require.NoError(t, err)
	stock, err := p.StockOf("M")
	require.NoError(t, err)
	assert.Equal(t, 3, stock)
	assert.Equal(t, 3, p.TotalStock)
}

func TestDeductStock_Failures(t *testing.T) {
	repo := NewInventoryRepository()
	seedInventory(t, repo, 5)

	assert.ErrorIs(t, repo.DeductStock(context.Background(), "missing", "M", 1), domain.ErrNotFound)
	assert.ErrorIs(t, repo.DeductStock(context.Background(), "p1", "XL", 1), domain.ErrSizeNotFound)
	assert.ErrorIs(t, repo.DeductStock(context.Background(), "p1", "M", 6), domain.ErrInsufficientStock)

	p, err := repo.GetByProductID(context.Background(), "p1")
	require.NoError(t, err)
	stock, err := p.StockOf("M")
	require.NoError(t, err)
	assert.Equal(t, 5, stock)
}

// Two callers racing on the last unit must not both win: the check and the
// decrement are one operation inside the store, with no caller-side lock.
func TestDeductStock_ConcurrentLastUnit(t *testing.T) {
	repo := NewInventoryRepository()
	seedInventory(t, repo, 1)

	const callers = 2
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.DeductStock(context.Background(), "p1", "M", 1)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.True(t, errors.Is(err, domain.ErrInsufficientStock))
		}
	}
	assert.Equal(t, 1, wins)

	p, err := repo.GetByProductID(context.Background(), "p1")
	require.NoError(t, err)
	stock, err := p.StockOf("M")
	require.NoError(t, err)
	assert.Zero(t, stock)
}
