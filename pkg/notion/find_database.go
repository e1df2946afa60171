package notion

import (
	"context"

	"github.com/Sternrassler/notion-picker/pkg/collector"
)

// Searcher is the part of the client DatabaseByNameCollector needs.
type Searcher interface {
	Search(ctx context.Context, req SearchRequest) (*ListResponse[Object], error)
}

// DatabaseByNameCollector searches for a database by name and stops at the
// first database in the results. Pages in the results are skipped.
type DatabaseByNameCollector struct {
	collector.Once

	client   Searcher
	name     string
	cursor   string
	database *Database
}

// NewDatabaseByNameCollector creates a collector searching for name.
func NewDatabaseByNameCollector(client Searcher, name string) *DatabaseByNameCollector {
	return &DatabaseByNameCollector{
		client: client,
		name:   name,
	}
}

// Fetch runs the search for the page following the last processed one.
func (c *DatabaseByNameCollector) Fetch(ctx context.Context) (collector.Page[Object], error) {
	resp, err := c.client.Search(ctx, SearchRequest{Query: c.name, StartCursor: c.cursor})
	if err != nil {
		return collector.Page[Object]{}, err
	}
	return resp.Page(), nil
}

// Process keeps the first database seen across all pages.
func (c *DatabaseByNameCollector) Process(page collector.Page[Object]) {
	c.cursor = page.NextCursor
	if c.database != nil {
		return
	}
	for _, obj := range page.Items {
		if obj.Kind == KindDatabase && obj.Database != nil {
			c.database = obj.Database
			return
		}
	}
}

// Done reports whether a database has been found.
func (c *DatabaseByNameCollector) Done() bool {
	return c.database != nil
}

// Finish returns the found database, or nil.
func (c *DatabaseByNameCollector) Finish() *Database {
	return c.database
}
