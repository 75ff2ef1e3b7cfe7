package presets

import "github.com/JonMunkholm/tabexport/internal/core"

func init() {
	registerProducts()
}

func registerProducts() {
	core.RegisterPreset(core.Preset{
		Key:   "products",
		Group: "Catalog",
		Label: "Products",
		Columns: []core.ExportColumn{
			{Key: "name", Header: "Product Name", Width: 200, Format: core.ColumnText},
			{Key: "sku", Header: "SKU", Width: 100, Format: core.ColumnText},
			{Key: "price", Header: "Price", Width: 100, Format: core.ColumnCurrency, Align: core.AlignRight},
			{Key: "stock", Header: "Stock", Width: 80, Format: core.ColumnNumber, Align: core.AlignRight},
			{Key: "category", Header: "Category", Width: 150, Format: core.ColumnText},
			{Key: "createdAt", Header: "Created Date", Width: 120, Format: core.ColumnDate},
		},
	})
}
