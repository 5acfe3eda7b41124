package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"plm/src/lib"
	"time"

	"github.com/gin-gonic/gin"
)

func cachedOptions(ctx context.Context, key string, fetch func() ([]lib.VehicleOption, error)) ([]lib.VehicleOption, error) {
	rd := lib.GetRedisClient()
	if rd != nil {
		if val := rd.Get(ctx, key).Val(); val != "" {
			var options []lib.VehicleOption
			if err := json.Unmarshal([]byte(val), &options); err == nil {
				return options, nil
			}
		}
	}
	options, err := fetch()
	if err != nil {
		return nil, err
	}
	if rd != nil {
		if b, err := json.Marshal(options); err == nil {
			rd.SetEx(ctx, key, string(b), 24*time.Hour)
		}
	}
	return options, nil
}

// vehicleHandlers proxies the vehicle catalog so the booking form can
// offer brand and model pickers. Responses are cached for a day; the
// catalog data barely moves.
func vehicleHandlers(g *gin.RouterGroup, catalog lib.VehicleCatalog) *gin.RouterGroup {
	g.
		GET("/vehicles/brands", func(ctx *gin.Context) {
			brands, err := cachedOptions(ctx, "vehicles:brands", func() ([]lib.VehicleOption, error) {
				return catalog.Brands(ctx)
			})
			if err != nil {
				log.Printf("Error fetching vehicle brands: %s\n", err.Error())
				ctx.JSON(http.StatusBadGateway, gin.H{"error": "vehicle catalog unavailable"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": brands})
		}).
		GET("/vehicles/brands/:code/models", func(ctx *gin.Context) {
			var params struct {
				Code string `uri:"code" binding:"required"`
			}
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			key := fmt.Sprintf("vehicles:brand:%s:models", params.Code)
			models, err := cachedOptions(ctx, key, func() ([]lib.VehicleOption, error) {
				return catalog.Models(ctx, params.Code)
			})
			if err != nil {
				log.Printf("Error fetching vehicle models for brand %s: %s\n", params.Code, err.Error())
				ctx.JSON(http.StatusBadGateway, gin.H{"error": "vehicle catalog unavailable"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": models})
		})
	return g
}
