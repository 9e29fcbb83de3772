package models

// DataSourceKind distinguishes registered source types.
const (
	KindDatabase = "database"
	KindFile     = "file"
)

// DataSourceConfig identifies one logical external database and carries the
// dialect-specific parameters needed to open a connection to it.
type DataSourceConfig struct {
	Dialect  string `json:"dialect"` // postgresql, mysql, sqlite, snowflake, bigquery
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Host     string `json:"host,omitempty"`
	Port     int    `json:"port,omitempty"`
	Database string `json:"database"`

	// Warehouse dialects need routing parameters beyond host:port/database.
	Account   string `json:"account,omitempty"`
	Warehouse string `json:"warehouse,omitempty"`
	Role      string `json:"role,omitempty"`

	// BigQuery
	ProjectID       string `json:"project_id,omitempty"`
	CredentialsFile string `json:"credentials_file,omitempty"`
	Location        string `json:"location,omitempty"`
}

// DataSource is a registered source as stored in the metadata database.
type DataSource struct {
	ID     int64            `json:"id"`
	Name   string           `json:"name"`
	Kind   string           `json:"type"`
	Config DataSourceConfig `json:"config"`
}

// RegisterDataSourceRequest for POST /api/v1/datasources
type RegisterDataSourceRequest struct {
	Name   string           `json:"name"`
	Kind   string           `json:"type"`
	Config DataSourceConfig `json:"config"`
}

// Redacted returns a copy safe for API responses and logs.
func (c DataSourceConfig) Redacted() DataSourceConfig {
	out := c
	if out.Password != "" {
		out.Password = "********"
	}
	return out
}
