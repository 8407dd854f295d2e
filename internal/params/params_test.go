package params_test

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/DMarby/pixelbench/internal/engine"
	"github.com/DMarby/pixelbench/internal/filter"
	"github.com/DMarby/pixelbench/internal/params"
	"github.com/DMarby/pixelbench/internal/pixel"
	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/mux"
)

func TestGet(t *testing.T) {
	tests := []struct {
		Name      string
		Vars      map[string]string
		Query     string
		Expected  *params.Params
		ExpectErr error
	}{
		{
			Name:     "defaults",
			Vars:     map[string]string{"id": "1", "filter": "blur"},
			Expected: &params.Params{ID: "1", Filter: filter.GaussianBlur, Extension: ".png", Format: pixel.PNG, Strategy: engine.Grid, Workers: 8},
		},
		{
			Name:     "all parameters",
			Vars:     map[string]string{"id": "1", "filter": "Edge", "extension": ".JPG"},
			Query:    "?strategy=forkjoin&workers=3&block=16",
			Expected: &params.Params{ID: "1", Filter: filter.EdgeDetection, Extension: ".jpg", Format: pixel.JPEG, Strategy: engine.Recursive, Workers: 3, BlockSize: 16},
		},
		{
			Name:     "sequential",
			Vars:     map[string]string{"id": "2", "filter": "invert", "extension": ".bmp"},
			Query:    "?strategy=sequential",
			Expected: &params.Params{ID: "2", Filter: filter.Invert, Extension: ".bmp", Format: pixel.BMP, Strategy: engine.Sequential, Workers: 8},
		},
		{Name: "unknown filter", Vars: map[string]string{"id": "1", "filter": "sharpen"}, ExpectErr: params.ErrInvalidFilter},
		{Name: "unknown extension", Vars: map[string]string{"id": "1", "filter": "blur", "extension": ".webp"}, ExpectErr: params.ErrInvalidFileExtension},
		{Name: "unknown strategy", Vars: map[string]string{"id": "1", "filter": "blur"}, Query: "?strategy=gpu", ExpectErr: params.ErrInvalidStrategy},
		{Name: "zero workers", Vars: map[string]string{"id": "1", "filter": "blur"}, Query: "?workers=0", ExpectErr: params.ErrInvalidWorkers},
		{Name: "too many workers", Vars: map[string]string{"id": "1", "filter": "blur"}, Query: "?workers=9", ExpectErr: params.ErrInvalidWorkers},
		{Name: "non numeric workers", Vars: map[string]string{"id": "1", "filter": "blur"}, Query: "?workers=many", ExpectErr: params.ErrInvalidWorkers},
		{Name: "zero block size", Vars: map[string]string{"id": "1", "filter": "blur"}, Query: "?block=0", ExpectErr: params.ErrInvalidBlockSize},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			req := mux.SetURLVars(httptest.NewRequest("GET", "/"+test.Query, nil), test.Vars)

			p, err := params.Get(req, 8)
			if test.ExpectErr != nil {
				if !errors.Is(err, test.ExpectErr) {
					t.Fatalf("expected %v, got %v", test.ExpectErr, err)
				}
				return
			}

			if err != nil {
				t.Fatal(err)
			}

			if diff := cmp.Diff(test.Expected, p); diff != "" {
				t.Errorf("wrong params (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFilename(t *testing.T) {
	p := &params.Params{ID: "7", Filter: filter.Sepia, Extension: ".jpg"}
	if got := p.Filename(); got != "7-sepia.jpg" {
		t.Errorf("wrong filename %s", got)
	}
}
