package storage

import (
	"strings"
	"time"

	"github.com/julianstephens/habitual/internal/storage/jsonstore"
	"github.com/julianstephens/habitual/internal/storage/postgres"
	"github.com/julianstephens/habitual/internal/storage/sqlite"
	"github.com/julianstephens/habitual/internal/utils"
)

// Kind names the backend a location resolves to.
type Kind string

const (
	KindSQLite   Kind = "sqlite"
	KindPostgres Kind = "postgres"
	KindJSON     Kind = "json"
)

// Detect picks a backend from the shape of location: PostgreSQL URIs and
// DSNs, .json files, and everything else as a SQLite database path.
func Detect(location string) Kind {
	switch {
	case postgres.IsConnString(location):
		return KindPostgres
	case strings.HasSuffix(strings.ToLower(location), ".json"):
		return KindJSON
	default:
		return KindSQLite
	}
}

// New builds a provider for location without opening it. Callers follow up
// with Init or Load. loc is the reference location for stores that keep
// timestamps without an offset.
func New(location string, loc *time.Location) (Provider, error) {
	switch Detect(location) {
	case KindPostgres:
		if ok, err := postgres.ValidateConnString(location); !ok {
			return nil, err
		}
		return postgres.New(location), nil
	case KindJSON:
		path, err := utils.ExpandPath(location)
		if err != nil {
			return nil, err
		}
		return jsonstore.NewStore(path, jsonstore.WithLocation(loc)), nil
	default:
		path, err := utils.ExpandPath(location)
		if err != nil {
			return nil, err
		}
		return sqlite.NewStore(path), nil
	}
}
