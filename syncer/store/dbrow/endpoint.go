package dbrow

import "time"

// Endpoint represents an RPC endpoint record as stored in the database
type Endpoint struct {
	Network   string    `db:"network"`
	URL       string    `db:"url"`
	Enabled   bool      `db:"enabled"`
	UpdatedAt time.Time `db:"updated_at"`
	// created_at is handled by database DEFAULT CURRENT_TIMESTAMP
}

// EndpointsToRows converts the endpoint URLs of one network to [][]any for pgx.CopyFromRows
func EndpointsToRows(network string, urls []string) [][]any {
	rows := make([][]any, len(urls))
	for i, url := range urls {
		rows[i] = []any{network, url}
	}
	return rows
}

// URLs extracts the endpoint URLs
func URLs(endpoints []Endpoint) []string {
	urls := make([]string, len(endpoints))
	for i, e := range endpoints {
		urls[i] = e.URL
	}
	return urls
}
