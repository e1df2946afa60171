package notion

import (
	"context"

	"github.com/google/uuid"

	"github.com/Sternrassler/notion-picker/pkg/collector"
)

// DatabaseQuerier is the part of the client DatabaseEntriesCollector needs.
type DatabaseQuerier interface {
	QueryDatabase(ctx context.Context, id uuid.UUID, req QueryRequest) (*ListResponse[Page], error)
}

// DatabaseEntriesCollector gathers every entry of a database, in order.
type DatabaseEntriesCollector struct {
	collector.Once

	client   DatabaseQuerier
	database uuid.UUID
	cursor   string
	pages    []Page
}

// NewDatabaseEntriesCollector creates a collector for the given database.
func NewDatabaseEntriesCollector(client DatabaseQuerier, database uuid.UUID) *DatabaseEntriesCollector {
	return &DatabaseEntriesCollector{
		client:   client,
		database: database,
		pages:    []Page{},
	}
}

// Fetch queries the page following the last processed one.
func (c *DatabaseEntriesCollector) Fetch(ctx context.Context) (collector.Page[Page], error) {
	resp, err := c.client.QueryDatabase(ctx, c.database, QueryRequest{StartCursor: c.cursor})
	if err != nil {
		return collector.Page[Page]{}, err
	}
	return resp.Page(), nil
}

// Process appends every entry of the page.
func (c *DatabaseEntriesCollector) Process(page collector.Page[Page]) {
	c.pages = append(c.pages, page.Items...)
	c.cursor = page.NextCursor
}

// Finish returns all collected entries.
func (c *DatabaseEntriesCollector) Finish() []Page {
	return c.pages
}
