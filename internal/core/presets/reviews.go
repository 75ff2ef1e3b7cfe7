package presets

import "github.com/JonMunkholm/tabexport/internal/core"

func init() {
	registerReviews()
}

func registerReviews() {
	core.RegisterPreset(core.Preset{
		Key:   "reviews",
		Group: "Catalog",
		Label: "Reviews",
		Columns: []core.ExportColumn{
			{Key: "productName", Header: "Product", Width: 200, Format: core.ColumnText},
			{Key: "customerName", Header: "Customer", Width: 150, Format: core.ColumnText},
			{Key: "rating", Header: "Rating", Width: 80, Format: core.ColumnNumber, Align: core.AlignCenter},
			{Key: "title", Header: "Review Title", Width: 200, Format: core.ColumnText},
			{Key: "comment", Header: "Comment", Width: 300, Format: core.ColumnText},
			{Key: "createdAt", Header: "Review Date", Width: 120, Format: core.ColumnDate},
		},
	})
}
