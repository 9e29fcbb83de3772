package schema

import (
	"strings"
	"testing"

	"github.com/queryloom/queryloom/internal/models"
)

func sampleTables() []models.TableSchema {
	return []models.TableSchema{
		{
			TableName: "orders",
			Columns: []models.ColumnInfo{
				{Name: "order_id", Type: "INTEGER", Description: "Unique order id.", IsPrimaryKey: true},
				{
					Name: "customer_id", Type: "INTEGER", Description: "Owning customer",
					IsForeignKey: true,
					References:   &models.ForeignKeyRef{Table: "customers", Column: "customer_id"},
				},
				{Name: "total", Type: "NUMERIC", Description: models.NoDescription},
			},
		},
		{
			TableName: "customers",
			Columns: []models.ColumnInfo{
				{Name: "customer_id", Type: "INTEGER", Description: "Customer id", IsPrimaryKey: true},
			},
		},
	}
}

func TestToMarkdown(t *testing.T) {
	got := ToMarkdown(sampleTables())

	want := strings.Join([]string{
		"# Table: orders",
		"- order_id (INTEGER, PK): Unique order id",
		"- customer_id (INTEGER, FK → customers(customer_id)): Owning customer",
		"- total (NUMERIC): No description",
		"",
		"# Table: customers",
		"- customer_id (INTEGER, PK): Customer id",
	}, "\n")

	if got != want {
		t.Errorf("ToMarkdown mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestToMarkdownDeterministic(t *testing.T) {
	first := ToMarkdown(sampleTables())
	for i := 0; i < 5; i++ {
		if again := ToMarkdown(sampleTables()); again != first {
			t.Fatalf("render %d differs from first render", i)
		}
	}
}

func TestToMarkdownErrorTable(t *testing.T) {
	got := ToMarkdown([]models.TableSchema{
		{TableName: "ghost", Columns: []models.ColumnInfo{}, Error: `table not found: "ghost"`},
	})
	if !strings.Contains(got, "# Table: ghost") {
		t.Errorf("missing table header: %q", got)
	}
	if !strings.Contains(got, `- error: table not found: "ghost"`) {
		t.Errorf("missing error line: %q", got)
	}
}

func TestDescribeTablesMarkdownSorted(t *testing.T) {
	got := DescribeTablesMarkdown(map[string]string{
		"zebra":  "Zoo animals",
		"apple":  "Fruit inventory",
		"mango":  "",
	})

	want := strings.Join([]string{
		"# Tables:",
		"- `apple`: Fruit inventory",
		"- `mango`: No description",
		"- `zebra`: Zoo animals",
	}, "\n")

	if got != want {
		t.Errorf("DescribeTablesMarkdown mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}
