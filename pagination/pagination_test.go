package pagination

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type item struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func setupTestDB(t *testing.T, rows int) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&item{}))

	for i := 1; i <= rows; i++ {
		require.NoError(t, db.Create(&item{Name: fmt.Sprintf("item-%02d", i)}).Error)
	}
	return db
}

func TestPaginate(t *testing.T) {
	db := setupTestDB(t, 25)

	t.Run("First page", func(t *testing.T) {
		page, err := Paginate[item](db.Order("name"), 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 10, page.RowsOnPage())
		assert.Equal(t, int64(25), page.TotalRows)
		assert.Equal(t, 3, page.TotalPages())
		assert.Equal(t, 1, page.FirstRow())
		assert.Equal(t, 10, page.LastRow())
		assert.Equal(t, "item-01", page.Rows[0].Name)
	})

	t.Run("Last partial page", func(t *testing.T) {
		page, err := Paginate[item](db.Order("name"), 3, 10)
		require.NoError(t, err)
		assert.Equal(t, 5, page.RowsOnPage())
		assert.Equal(t, 21, page.FirstRow())
		assert.Equal(t, 25, page.LastRow())
	})

	t.Run("Page out of range", func(t *testing.T) {
		_, err := Paginate[item](db.Order("name"), 4, 10)
		assert.ErrorIs(t, err, ErrPageOutOfRange)

		_, err = Paginate[item](db.Order("name"), 0, 10)
		assert.ErrorIs(t, err, ErrPageOutOfRange)

		_, err = Paginate[item](db.Order("name"), -1, 10)
		assert.ErrorIs(t, err, ErrPageOutOfRange)
	})
}

func TestPaginateEmpty(t *testing.T) {
	db := setupTestDB(t, 0)

	// Page one of an empty result is valid, everything beyond is not.
	page, err := Paginate[item](db.Order("name"), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, page.RowsOnPage())
	assert.Equal(t, 0, page.TotalPages())

	_, err = Paginate[item](db.Order("name"), 2, 10)
	assert.ErrorIs(t, err, ErrPageOutOfRange)
}

func TestPaginateWithFilter(t *testing.T) {
	db := setupTestDB(t, 25)

	// The zero-padded names put item-10 through item-19 in the filter.
	page, err := Paginate[item](db.Where("name LIKE ?", "item-1%").Order("name"), 1, 6)
	require.NoError(t, err)
	assert.Equal(t, int64(10), page.TotalRows)
	assert.Equal(t, 6, page.RowsOnPage())
	assert.Equal(t, 2, page.TotalPages())

	page, err = Paginate[item](db.Where("name LIKE ?", "item-1%").Order("name"), 2, 6)
	require.NoError(t, err)
	assert.Equal(t, 4, page.RowsOnPage())
	assert.Equal(t, "item-16", page.Rows[0].Name)
}

func TestTotalPagesRoundsUp(t *testing.T) {
	page := &Page[item]{CurrentPage: 1, RowsPerPage: 10, TotalRows: 31}
	assert.Equal(t, 4, page.TotalPages())

	page.TotalRows = 30
	assert.Equal(t, 3, page.TotalPages())
}

func TestInfoText(t *testing.T) {
	db := setupTestDB(t, 11)

	t.Run("Multiple results", func(t *testing.T) {
		page, err := Paginate[item](db.Order("name"), 1, 10)
		require.NoError(t, err)
		assert.Equal(t, "Displaying results 1 to 10 of 11", page.InfoText(""))
		assert.Equal(t, "Displaying results 1 to 10 of 11 matching “item”", page.InfoText("item"))
	})

	t.Run("Single result", func(t *testing.T) {
		page, err := Paginate[item](db.Order("name"), 2, 10)
		require.NoError(t, err)
		assert.Equal(t, "Displaying result 11 of 11", page.InfoText(""))
		assert.Equal(t, "Displaying result 11 of 11 matching “item”", page.InfoText("item"))
	})

	t.Run("No results", func(t *testing.T) {
		empty := setupTestDB(t, 0)
		page, err := Paginate[item](empty, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, "No results", page.InfoText(""))
		assert.Equal(t, "No results found matching “missing”", page.InfoText("missing"))
	})
}
