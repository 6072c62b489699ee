package export

import (
	"bytes"
	"testing"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
)

func TestProductsXLSX(t *testing.T) {
	categoryID := uuid.New()
	created := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	products := []*domain.Product{
		{ID: uuid.New(), CategoryID: categoryID, Name: "Serum", Slug: "serum", Price: 125000, Stock: 7, IsActive: true, CreatedAt: created, UpdatedAt: created},
		{ID: uuid.New(), CategoryID: uuid.New(), Name: "Toner", Slug: "toner", Price: 90000, Stock: 0, CreatedAt: created, UpdatedAt: created},
	}

	var buf bytes.Buffer
	require.NoError(t, ProductsXLSX(&buf, products, map[string]string{categoryID.String(): "Skincare"}))

	book, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, book.Sheets, 1)

	rows := book.Sheets[0].Rows
	require.Len(t, rows, 3)
	assert.Equal(t, "Name", rows[0].Cells[1].String())

	first := rows[1].Cells
	assert.Equal(t, products[0].ID.String(), first[0].String())
	assert.Equal(t, "Skincare", first[3].String())
	price, err := first[4].Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(125000), price)
	assert.True(t, first[6].Bool())
	assert.Equal(t, "2026-03-01 10:30:00", first[8].String())

	assert.Equal(t, "", rows[2].Cells[3].String())
}

func TestProductsXLSX_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ProductsXLSX(&buf, nil, nil))

	book, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	assert.Len(t, book.Sheets[0].Rows, 1)
}
