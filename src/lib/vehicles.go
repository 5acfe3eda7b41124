package lib

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/tidwall/gjson"
)

type VehicleOption struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// VehicleCatalog looks up car brands and models for the booking form.
// Handlers receive an implementation instead of reaching for a global so
// tests can swap in a stub.
type VehicleCatalog interface {
	Brands(ctx context.Context) ([]VehicleOption, error)
	Models(ctx context.Context, brandCode string) ([]VehicleOption, error)
}

type fipeCatalog struct {
	baseURL string
	client  *http.Client
}

func NewFipeCatalog() VehicleCatalog {
	baseURL := os.Getenv("FIPE_API_URL")
	if baseURL == "" {
		baseURL = "https://parallelum.com.br/fipe/api/v1"
	}
	return &fipeCatalog{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (f *fipeCatalog) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	res, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vehicle catalog returned status %d", res.StatusCode)
	}
	return io.ReadAll(res.Body)
}

func parseOptions(items gjson.Result) []VehicleOption {
	options := make([]VehicleOption, 0)
	items.ForEach(func(_, value gjson.Result) bool {
		options = append(options, VehicleOption{
			Code: value.Get("codigo").String(),
			Name: value.Get("nome").String(),
		})
		return true
	})
	return options
}

func (f *fipeCatalog) Brands(ctx context.Context) ([]VehicleOption, error) {
	body, err := f.fetch(ctx, fmt.Sprintf("%s/carros/marcas", f.baseURL))
	if err != nil {
		return nil, err
	}
	return parseOptions(gjson.ParseBytes(body)), nil
}

func (f *fipeCatalog) Models(ctx context.Context, brandCode string) ([]VehicleOption, error) {
	body, err := f.fetch(ctx, fmt.Sprintf("%s/carros/marcas/%s/modelos", f.baseURL, brandCode))
	if err != nil {
		return nil, err
	}
	return parseOptions(gjson.GetBytes(body, "modelos")), nil
}
