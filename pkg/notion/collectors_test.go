package notion

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mocknotion "github.com/Sternrassler/notion-picker/internal/testutil"
	"github.com/Sternrassler/notion-picker/pkg/collector"
)

const (
	otherDatabaseID = "9b4d2a2f-3c5e-4f70-8b1c-2d3e4f5a6b7c"
	testPageID3     = "33333333-3333-4333-8333-333333333333"
)

func titles(t *testing.T, pages []Page) []string {
	t.Helper()
	out := make([]string, 0, len(pages))
	for _, p := range pages {
		title, ok := p.Title()
		require.True(t, ok)
		out = append(out, title)
	}
	return out
}

func TestDatabaseEntriesCollector_AllPages(t *testing.T) {
	mock, client := setupMockNotion(t)
	path := mocknotion.DatabaseQueryPath(testDatabaseID)
	mock.SetListPages(path,
		[]map[string]any{
			mocknotion.PageObject(testPageID1, "A", "Watching"),
			mocknotion.PageObject(testPageID2, "B", "Paused"),
		},
		[]map[string]any{
			mocknotion.PageObject(testPageID3, "C", ""),
		},
	)

	c := NewDatabaseEntriesCollector(client, uuid.MustParse(testDatabaseID))
	pages, err := collector.Collect(context.Background(), c)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "C"}, titles(t, pages))
	assert.Equal(t, 2, mock.GetRequestCount(path))
	assert.Equal(t, []string{"", "cursor-1"}, mock.GetCursors(path))
}

func TestDatabaseEntriesCollector_SinglePage(t *testing.T) {
	mock, client := setupMockNotion(t)
	path := mocknotion.DatabaseQueryPath(testDatabaseID)
	mock.SetListPages(path, nil)

	c := NewDatabaseEntriesCollector(client, uuid.MustParse(testDatabaseID))
	pages, err := collector.Collect(context.Background(), c)
	require.NoError(t, err)

	assert.NotNil(t, pages)
	assert.Empty(t, pages)
	assert.Equal(t, 1, mock.GetRequestCount(path))
}

func TestDatabaseEntriesCollector_FetchFailure(t *testing.T) {
	mock, client := setupMockNotion(t)
	path := mocknotion.DatabaseQueryPath(testDatabaseID)
	mock.SetResponse(path, mocknotion.NewErrorResponse(404, "object_not_found", "Could not find database"))

	c := NewDatabaseEntriesCollector(client, uuid.MustParse(testDatabaseID))
	pages, err := collector.Collect(context.Background(), c)

	assert.Nil(t, pages)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "object_not_found", apiErr.Code)
	assert.Equal(t, 1, mock.GetRequestCount(path))
}

func TestDatabaseEntriesCollector_HasMoreWithoutCursorFails(t *testing.T) {
	mock, client := setupMockNotion(t)
	path := mocknotion.DatabaseQueryPath(testDatabaseID)
	mock.SetResponse(path, mocknotion.MockNotionResponse{
		StatusCode: 200,
		Body:       `{"object":"list","results":[{"object":"page","id":"` + testPageID1 + `","properties":{}}],"next_cursor":null,"has_more":true}`,
	})

	c := NewDatabaseEntriesCollector(client, uuid.MustParse(testDatabaseID))
	pages, err := collector.Collect(context.Background(), c)

	assert.Nil(t, pages)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, ErrorClassDecode, apiErr.Class)
	assert.Equal(t, 1, mock.GetRequestCount(path))
}

func TestDatabaseEntriesCollector_Reuse(t *testing.T) {
	mock, client := setupMockNotion(t)
	path := mocknotion.DatabaseQueryPath(testDatabaseID)
	mock.SetListPages(path, []map[string]any{mocknotion.PageObject(testPageID1, "A", "Watching")})

	c := NewDatabaseEntriesCollector(client, uuid.MustParse(testDatabaseID))
	_, err := collector.Collect(context.Background(), c)
	require.NoError(t, err)

	_, err = collector.Collect(context.Background(), c)
	assert.ErrorIs(t, err, collector.ErrAlreadyCollected)
	assert.Equal(t, 1, mock.GetRequestCount(path))
}

func TestDatabaseByNameCollector_StopsAtFirstDatabase(t *testing.T) {
	mock, client := setupMockNotion(t)
	mock.SetListPages(mocknotion.SearchPath,
		[]map[string]any{mocknotion.PageObject(testPageID1, "Movies to watch", "")},
		[]map[string]any{
			mocknotion.PageObject(testPageID2, "Movies I liked", ""),
			mocknotion.DatabaseObject(testDatabaseID, "Movies"),
			mocknotion.DatabaseObject(otherDatabaseID, "Movies (old)"),
		},
		[]map[string]any{mocknotion.DatabaseObject(otherDatabaseID, "Movies 2")},
	)

	c := NewDatabaseByNameCollector(client, "Movies")
	db, err := collector.Collect(context.Background(), c)
	require.NoError(t, err)

	require.NotNil(t, db)
	assert.Equal(t, uuid.MustParse(testDatabaseID), db.ID)
	assert.Equal(t, "Movies", db.PlainTitle())
	assert.Equal(t, 2, mock.GetRequestCount(mocknotion.SearchPath))
	assert.Equal(t, []string{"", "cursor-1"}, mock.GetCursors(mocknotion.SearchPath))
}

func TestDatabaseByNameCollector_Absent(t *testing.T) {
	mock, client := setupMockNotion(t)
	mock.SetListPages(mocknotion.SearchPath,
		[]map[string]any{mocknotion.PageObject(testPageID1, "Books", "")},
		[]map[string]any{mocknotion.PageObject(testPageID2, "Books read", "")},
	)

	c := NewDatabaseByNameCollector(client, "Books")
	db, err := collector.Collect(context.Background(), c)
	require.NoError(t, err)

	assert.Nil(t, db)
	assert.Equal(t, 2, mock.GetRequestCount(mocknotion.SearchPath))
}

// fakeSearcher returns scripted responses without HTTP.
type fakeSearcher struct {
	responses []*ListResponse[Object]
	err       error
	requests  []SearchRequest
}

func (f *fakeSearcher) Search(_ context.Context, req SearchRequest) (*ListResponse[Object], error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.responses[len(f.requests)-1], nil
}

func TestDatabaseByNameCollector_ErrorReturnedAsIs(t *testing.T) {
	want := &APIError{StatusCode: 401, Class: ErrorClassClient, Code: "unauthorized"}
	fake := &fakeSearcher{err: want}

	db, err := collector.Collect(context.Background(), NewDatabaseByNameCollector(fake, "Games"))
	assert.Nil(t, db)
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.Same(t, want, err)
	require.Len(t, fake.requests, 1)
	assert.Equal(t, "Games", fake.requests[0].Query)
}

func TestDatabaseByNameCollector_FirstMatchKeptAcrossPages(t *testing.T) {
	first := &Database{ID: uuid.MustParse(testDatabaseID)}
	next := "c1"
	fake := &fakeSearcher{responses: []*ListResponse[Object]{
		{Results: []Object{{Kind: KindDatabase, Database: first}}, NextCursor: &next, HasMore: true},
	}}

	c := NewDatabaseByNameCollector(fake, "Games")
	db, err := collector.Collect(context.Background(), c)
	require.NoError(t, err)
	assert.Same(t, first, db)
	assert.Len(t, fake.requests, 1)
}
