// Package export renders back-office spreadsheets.
package export

import (
	"fmt"
	"io"

	"storefront/internal/domain"

	"github.com/tealeg/xlsx"
)

const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var productHeaders = []string{
	"ID", "Name", "Slug", "Category", "Price", "Stock", "Active", "Image", "CreatedAt", "UpdatedAt",
}

// ProductsXLSX writes one sheet with a header row and one row per product.
// categoryNames resolves category ids to names; unknown ids are left blank.
func ProductsXLSX(w io.Writer, products []*domain.Product, categoryNames map[string]string) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range productHeaders {
		header.AddCell().SetValue(h)
	}

	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetValue(p.ID.String())
		row.AddCell().SetValue(p.Name)
		row.AddCell().SetValue(p.Slug)
		row.AddCell().SetValue(categoryNames[p.CategoryID.String()])
		row.AddCell().SetInt64(p.Price)
		row.AddCell().SetInt(p.Stock)
		row.AddCell().SetBool(p.IsActive)
		row.AddCell().SetValue(p.ImageURL)
		row.AddCell().SetValue(p.CreatedAt.Format("2006-01-02 15:04:05"))
		row.AddCell().SetValue(p.UpdatedAt.Format("2006-01-02 15:04:05"))
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
