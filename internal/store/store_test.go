package store

import "testing"

func TestSplitColumnKey(t *testing.T) {
	tests := []struct {
		key, wantTable, wantColumn string
	}{
		{"orders.total", "orders", "total"},
		{"orders.meta.created", "orders", "meta.created"},
		{"orders", "orders", ""},
		{"", "", ""},
		{".leading", "", "leading"},
	}
	for _, tt := range tests {
		table, column := splitColumnKey(tt.key)
		if table != tt.wantTable || column != tt.wantColumn {
			t.Errorf("splitColumnKey(%q) = (%q, %q), want (%q, %q)",
				tt.key, table, column, tt.wantTable, tt.wantColumn)
		}
	}
}
