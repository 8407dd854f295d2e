package params

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/DMarby/pixelbench/internal/engine"
	"github.com/DMarby/pixelbench/internal/filter"
	"github.com/DMarby/pixelbench/internal/pixel"
	"github.com/gorilla/mux"
)

// Errors
var (
	ErrInvalidFilter        = errors.New("Invalid filter")
	ErrInvalidFileExtension = errors.New("Invalid file extension")
	ErrInvalidStrategy      = errors.New("Invalid strategy")
	ErrInvalidWorkers       = errors.New("Invalid worker count")
	ErrInvalidBlockSize     = errors.New("Invalid block size")
)

// Params contains all the parameters for a filter request
type Params struct {
	ID        string
	Filter    filter.Kind
	Extension string
	Format    pixel.Format
	Strategy  engine.Strategy
	Workers   int
	// BlockSize is 0 when the planner should pick one
	BlockSize int
}

// Get parses and validates the path and query parameters of r.
// Workers default to, and may not exceed, maxWorkers.
func Get(r *http.Request, maxWorkers int) (*Params, error) {
	vars := mux.Vars(r)

	kind, err := filter.Parse(vars["filter"])
	if err != nil {
		return nil, ErrInvalidFilter
	}

	extension, format, err := getFormat(vars["extension"])
	if err != nil {
		return nil, err
	}

	p := &Params{
		ID:        vars["id"],
		Filter:    kind,
		Extension: extension,
		Format:    format,
		Strategy:  engine.Grid,
		Workers:   maxWorkers,
	}

	query := r.URL.Query()

	if query.Has("strategy") {
		p.Strategy, err = engine.ParseStrategy(query.Get("strategy"))
		if err != nil {
			return nil, ErrInvalidStrategy
		}
	}

	if query.Has("workers") {
		p.Workers, err = strconv.Atoi(query.Get("workers"))
		if err != nil || p.Workers < 1 || p.Workers > maxWorkers {
			return nil, fmt.Errorf("%w, expected 1 to %d", ErrInvalidWorkers, maxWorkers)
		}
	}

	if query.Has("block") {
		p.BlockSize, err = strconv.Atoi(query.Get("block"))
		if err != nil || p.BlockSize < 1 {
			return nil, ErrInvalidBlockSize
		}
	}

	return p, nil
}

// getFormat validates the file extension, defaulting to png when there is none
func getFormat(extension string) (string, pixel.Format, error) {
	extension = strings.ToLower(extension)
	if extension == "" {
		extension = ".png"
	}

	format, err := pixel.FormatFromExtension(extension)
	if err != nil {
		return "", 0, ErrInvalidFileExtension
	}

	return extension, format, nil
}

// Filename returns the name the filtered image is served as
func (p *Params) Filename() string {
	return fmt.Sprintf("%s-%s%s", p.ID, p.Filter, p.Extension)
}
