package lib

import (
	"context"
	"log"
	"plm/src/config"

	"googlemaps.github.io/maps"
)

var mapsClient *maps.Client

func GetMapsClient() (*maps.Client, error) {
	if mapsClient != nil {
		return mapsClient, nil
	}
	cli, err := maps.NewClient(maps.WithAPIKey(config.GAPIKey()))
	if err != nil {
		return nil, err
	}
	mapsClient = cli
	return cli, nil
}

func NewMapsClient(c *maps.Client) {
	mapsClient = c
}

// GeocodeAddress resolves a street address to coordinates. Returns nils
// when the address cannot be resolved; lot creation treats that as
// non-fatal and stores the lot without coordinates.
func GeocodeAddress(ctx context.Context, address string) (*float64, *float64) {
	cli, err := GetMapsClient()
	if err != nil {
		log.Printf("Error initializing Maps client: %s\n", err.Error())
		return nil, nil
	}
	results, err := cli.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil || len(results) == 0 {
		log.Printf("Could not geocode address %q\n", address)
		return nil, nil
	}
	loc := results[0].Geometry.Location
	return &loc.Lat, &loc.Lng
}
