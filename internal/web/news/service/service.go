// Package service implements the news platform operations on top of the dao.
package service

import (
	"strconv"
	"strings"
	"time"

	gutils "github.com/Laisky/go-utils/v6"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Laisky/multilingual-news/internal/web/news/dao"
	"github.com/Laisky/multilingual-news/internal/web/news/model"
)

const (
	// DefaultPageSize page size when the caller gives none.
	DefaultPageSize = 20
	// MaxPageSize caps the number of documents returned in one page.
	MaxPageSize = 100
	// summaryRunes length of a derived summary.
	summaryRunes = 200
)

// now is swapped by tests
var now = func() time.Time {
	return gutils.Clock.GetUTCNow()
}

// Paging sanitized page and limit
func Paging(page, limit int) dao.Page {
	if page < 1 {
		page = 1
	}
	switch {
	case limit <= 0:
		limit = DefaultPageSize
	case limit > MaxPageSize:
		limit = MaxPageSize
	}
	return dao.Page{Page: page, Limit: limit}
}

// ParseID parse a hex object id, field names the input in the error
func ParseID(field, hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(hex))
	if err != nil {
		return primitive.NilObjectID, model.Invalid(field, "invalid id %q", hex)
	}
	return id, nil
}

// parseOptionalID parse hex, empty means nil
func parseOptionalID(field, hex string) (*primitive.ObjectID, error) {
	if strings.TrimSpace(hex) == "" {
		return nil, nil
	}
	id, err := ParseID(field, hex)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func parseIDs(field string, hexes []string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(hexes))
	seen := map[primitive.ObjectID]bool{}
	for i, hex := range hexes {
		id, err := ParseID(field+"["+strconv.Itoa(i)+"]", hex)
		if err != nil {
			return nil, err
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}
