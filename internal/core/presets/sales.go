package presets

import "github.com/JonMunkholm/tabexport/internal/core"

func init() {
	registerOrders()
	registerCustomers()
}

func registerOrders() {
	core.RegisterPreset(core.Preset{
		Key:   "orders",
		Group: "Sales",
		Label: "Orders",
		Columns: []core.ExportColumn{
			{Key: "orderNumber", Header: "Order #", Width: 120, Format: core.ColumnText},
			{Key: "customerName", Header: "Customer", Width: 150, Format: core.ColumnText},
			{Key: "total", Header: "Total", Width: 100, Format: core.ColumnCurrency, Align: core.AlignRight},
			{Key: "status", Header: "Status", Width: 100, Format: core.ColumnText},
			{Key: "orderDate", Header: "Order Date", Width: 120, Format: core.ColumnDate},
			{Key: "shippingAddress", Header: "Shipping Address", Width: 200, Format: core.ColumnText},
		},
	})
}

func registerCustomers() {
	core.RegisterPreset(core.Preset{
		Key:   "customers",
		Group: "Sales",
		Label: "Customers",
		Columns: []core.ExportColumn{
			{Key: "name", Header: "Name", Width: 150, Format: core.ColumnText},
			{Key: "email", Header: "Email", Width: 200, Format: core.ColumnText},
			{Key: "phone", Header: "Phone", Width: 120, Format: core.ColumnText},
			{Key: "totalOrders", Header: "Total Orders", Width: 100, Format: core.ColumnNumber, Align: core.AlignRight},
			{Key: "totalSpent", Header: "Total Spent", Width: 120, Format: core.ColumnCurrency, Align: core.AlignRight},
			{Key: "registeredDate", Header: "Registered Date", Width: 120, Format: core.ColumnDate},
		},
	})
}
