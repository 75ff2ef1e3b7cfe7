package core

import (
	"reflect"
	"testing"
)

func TestPresetRegistry(t *testing.T) {
	ClearPresets()
	t.Cleanup(ClearPresets)

	RegisterPreset(Preset{
		Key:   "reviews",
		Group: "Catalog",
		Label: "Reviews",
		Columns: []ExportColumn{
			{Key: "productName", Header: "Product"},
			{Key: "rating"},
		},
	})
	RegisterPreset(Preset{Key: "orders", Group: "Sales", Label: "Orders", Table: "shop_orders"})
	RegisterPreset(Preset{Key: "products", Group: "Catalog", Label: "Products"})

	if got := PresetCount(); got != 3 {
		t.Errorf("PresetCount() = %d, want 3", got)
	}

	p, ok := LookupPreset("reviews")
	if !ok {
		t.Fatal("LookupPreset(reviews) not found")
	}
	if p.Columns[1].Header != "rating" {
		t.Errorf("empty header = %q, want key rating", p.Columns[1].Header)
	}

	if _, ok := LookupPreset("nope"); ok {
		t.Error("LookupPreset(nope) found")
	}

	var keys []string
	for _, p := range AllPresets() {
		keys = append(keys, p.Key)
	}
	if want := []string{"products", "reviews", "orders"}; !reflect.DeepEqual(keys, want) {
		t.Errorf("AllPresets() keys = %v, want %v", keys, want)
	}

	if want := []string{"Catalog", "Sales"}; !reflect.DeepEqual(PresetGroups(), want) {
		t.Errorf("PresetGroups() = %v, want %v", PresetGroups(), want)
	}
}

func TestRegisterPreset_DuplicatePanics(t *testing.T) {
	ClearPresets()
	t.Cleanup(ClearPresets)

	RegisterPreset(Preset{Key: "dup"})

	defer func() {
		if recover() == nil {
			t.Error("RegisterPreset(dup) did not panic")
		}
	}()
	RegisterPreset(Preset{Key: "dup"})
}

func TestMustPreset(t *testing.T) {
	ClearPresets()
	t.Cleanup(ClearPresets)

	if _, err := MustPreset("missing"); MapError(err).Code != "EXP005" {
		t.Errorf("MustPreset(missing) error = %v, want EXP005", err)
	}
}

func TestPreset_SourceColumns(t *testing.T) {
	p := Preset{
		Key: "orders",
		Columns: []ExportColumn{
			{Key: "orderNumber"},
			{Key: "total"},
			{Key: "shippingAddress"},
			{Key: "Order Date"},
		},
	}

	want := []string{"order_number", "total", "shipping_address", "order__date"}
	if got := p.SourceColumns(); !reflect.DeepEqual(got, want) {
		t.Errorf("SourceColumns() = %v, want %v", got, want)
	}
	if p.TableName() != "orders" {
		t.Errorf("TableName() = %q, want orders", p.TableName())
	}
}
