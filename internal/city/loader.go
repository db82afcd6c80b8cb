package city

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/i474232898/city-area/internal/common"
)

var validate = validator.New()

// record is the on-disk shape of a city. Older datasets name the id "guid".
type record struct {
	ID        string   `json:"id"   validate:"required_without=GUID"`
	GUID      string   `json:"guid" validate:"required_without=ID"`
	IsActive  bool     `json:"isActive"`
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude"  validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
	Tags      []string `json:"tags"`
}

func (r record) toCity() City {
	id := r.ID
	if id == "" {
		id = r.GUID
	}
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return City{
		ID:        id,
		IsActive:  r.IsActive,
		Address:   r.Address,
		Latitude:  *r.Latitude,
		Longitude: *r.Longitude,
		Tags:      tags,
	}
}

// Loader reads the city dataset from a local file or an http(s) URL.
type Loader struct {
	log    *slog.Logger
	remote *remote
}

// NewLoader creates a Loader. client is only used for remote sources.
func NewLoader(log *slog.Logger, client *http.Client) *Loader {
	return &Loader{
		log:    log,
		remote: newRemote(client),
	}
}

// Load reads every record from source and builds the index.
func (l *Loader) Load(ctx context.Context, source string) (*Index, error) {
	var (
		body io.ReadCloser
		err  error
	)

	if common.HasAnyPrefix(source, "http://", "https://") {
		body, err = l.remote.get(ctx, source)
	} else {
		body, err = os.Open(source)
	}
	if err != nil {
		return nil, fmt.Errorf("open city dataset %q: %w", source, err)
	}
	defer body.Close()

	cities, err := Decode(body)
	if err != nil {
		return nil, fmt.Errorf("read city dataset %q: %w", source, err)
	}

	idx, err := NewIndex(cities)
	if err != nil {
		return nil, err
	}

	l.log.InfoContext(ctx, "City dataset loaded", "source", source, "cities", idx.Len())
	return idx, nil
}

// Decode parses a JSON array of city records, validating each one.
func Decode(r io.Reader) ([]City, error) {
	var records []record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, err
	}

	cities := make([]City, 0, len(records))
	for i, rec := range records {
		if err := validate.Struct(rec); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		cities = append(cities, rec.toCity())
	}
	return cities, nil
}
