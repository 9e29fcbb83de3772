package models

// NoDescription is the sentinel used when no curated text exists for a table
// or column.
const NoDescription = "No description"

// ForeignKeyRef names the referenced side of a foreign key.
type ForeignKeyRef struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

// ColumnInfo is one column as seen by the schema resolver.
type ColumnInfo struct {
	Name         string         `json:"name"`
	Type         string         `json:"type"`
	Description  string         `json:"description"`
	IsPrimaryKey bool           `json:"is_primary_key"`
	IsForeignKey bool           `json:"is_foreign_key"`
	References   *ForeignKeyRef `json:"references,omitempty"`
}

// TableSchema is one table's resolved shape. A failed per-table introspection
// is represented by a non-empty Error and empty Columns rather than an absent
// entry, so partial resolutions stay visible to the caller.
type TableSchema struct {
	TableName string       `json:"table_name"`
	Columns   []ColumnInfo `json:"columns"`
	Error     string       `json:"error,omitempty"`
}

// DescriptionPayload for POST /api/v1/descriptions. Column keys use the
// "table.column" form.
type DescriptionPayload struct {
	DataSourceID int64             `json:"data_source_id"`
	Tables       map[string]string `json:"tables"`
	Columns      map[string]string `json:"columns"`
}
