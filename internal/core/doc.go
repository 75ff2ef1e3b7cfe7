// Package core provides the business logic for tabular data export.
//
// This package is the heart of the exporter, containing all domain logic
// independent of any transport layer. It can be used by web handlers,
// the CLI, or tests without modification.
//
// # Architecture
//
// An export runs leaf-first through a small set of pure stages:
//
//   - Values and Records: [Value] is a tagged scalar, [Record] an ordered
//     mapping of field names to values.
//   - Formatting: [Formatter] renders a value under a column format
//     (text, number, date, currency, percentage) using a [FormatPolicy].
//   - Shaping: [Transform] applies an [ExportConfig]; [Project] selects and
//     formats a list of [ExportColumn].
//   - Encoding: [EncodeCSV], JSON via Record's MarshalJSON, and [RenderTable]
//     for the printable HTML table.
//   - Selection: [ApplyFilters] and [SortRecords].
//
// The [Exporter] orchestrates these stages and hands the resulting
// [Artifact] to a [Sink]. Printable output goes to a [Presenter].
//
// # Column Presets
//
// Column sets for common entities are registered at init time using
// [RegisterPreset] and resolved with [LookupPreset]:
//
//	core.RegisterPreset(core.Preset{
//	    Key:   "products",
//	    Label: "Products",
//	    Columns: []core.ExportColumn{
//	        {Key: "name", Header: "Product Name", Format: core.ColumnText},
//	        {Key: "price", Header: "Price", Format: core.ColumnCurrency, Align: core.AlignRight},
//	    },
//	})
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - EXP001-EXP006: Export errors (empty input, format, limits, bad requests)
//   - DB001-DB005: Database errors (connections, timeouts, missing tables)
//   - SRC001-SRC002: Source errors (remote endpoint, unreadable file)
//   - REQ001-REQ002: Cancelled or timed out requests
//   - RATE001: Rate limiting
package core
