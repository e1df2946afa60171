package notion

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Sternrassler/notion-picker/pkg/collector"
)

// Object kinds as reported in the "object" field.
const (
	KindDatabase = "database"
	KindPage     = "page"
)

// Property types the picker understands.
const (
	PropertyTypeTitle  = "title"
	PropertyTypeStatus = "status"
	PropertyTypeSelect = "select"
)

// ListResponse is one page of a paginated list endpoint.
type ListResponse[T any] struct {
	Results    []T     `json:"results"`
	NextCursor *string `json:"next_cursor"`
	HasMore    bool    `json:"has_more"`
}

// validate rejects a response that promises more results without a cursor
// to fetch them with.
func (r *ListResponse[T]) validate() error {
	if r.HasMore && (r.NextCursor == nil || *r.NextCursor == "") {
		return errors.New("has_more is set but next_cursor is empty")
	}
	return nil
}

// Page converts the response into a collector page.
func (r *ListResponse[T]) Page() collector.Page[T] {
	p := collector.Page[T]{
		Items:   r.Results,
		HasMore: r.HasMore,
	}
	if r.NextCursor != nil {
		p.NextCursor = *r.NextCursor
	}
	return p
}

// RichText is a fragment of formatted text; only the plain text is kept.
type RichText struct {
	PlainText string `json:"plain_text"`
}

func plainText(parts []RichText) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p.PlainText)
	}
	return b.String()
}

// SelectOption is the value of a status or select property.
type SelectOption struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// PropertyValue is one property of a database entry.
// Only the fields for the types listed above are decoded.
type PropertyValue struct {
	ID     string        `json:"id"`
	Type   string        `json:"type"`
	Title  []RichText    `json:"title,omitempty"`
	Status *SelectOption `json:"status,omitempty"`
	Select *SelectOption `json:"select,omitempty"`
}

// Database is a Notion database.
type Database struct {
	ID    uuid.UUID  `json:"id"`
	Title []RichText `json:"title"`
}

// PlainTitle returns the database title without formatting.
func (d *Database) PlainTitle() string {
	return plainText(d.Title)
}

// Page is a Notion page, typically an entry of a database.
type Page struct {
	ID         uuid.UUID                `json:"id"`
	Properties map[string]PropertyValue `json:"properties"`
}

// Title returns the plain text of the page's title property.
func (p *Page) Title() (string, bool) {
	for _, v := range p.Properties {
		if v.Type == PropertyTypeTitle {
			return plainText(v.Title), true
		}
	}
	return "", false
}

// Status returns the option name of the named status property.
// Select properties are accepted too, since older databases model status that way.
func (p *Page) Status(property string) (string, bool) {
	v, ok := p.Properties[property]
	if !ok {
		return "", false
	}
	switch v.Type {
	case PropertyTypeStatus:
		if v.Status != nil {
			return v.Status.Name, true
		}
	case PropertyTypeSelect:
		if v.Select != nil {
			return v.Select.Name, true
		}
	}
	return "", false
}

// Object is one search result, either a database or a page.
type Object struct {
	Kind     string
	Database *Database
	Page     *Page
}

// UnmarshalJSON decodes the variant selected by the "object" field.
// Unknown kinds keep only Kind.
func (o *Object) UnmarshalJSON(data []byte) error {
	var head struct {
		Object string `json:"object"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}

	*o = Object{Kind: head.Object}
	switch head.Object {
	case KindDatabase:
		o.Database = &Database{}
		if err := json.Unmarshal(data, o.Database); err != nil {
			return fmt.Errorf("decode database: %w", err)
		}
	case KindPage:
		o.Page = &Page{}
		if err := json.Unmarshal(data, o.Page); err != nil {
			return fmt.Errorf("decode page: %w", err)
		}
	}
	return nil
}
