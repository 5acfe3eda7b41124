package main

import (
	"log"
	"math"
	"net/http"
	"plm/src/db"
	"plm/src/lib"
	"plm/src/models"
	"plm/src/types"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

const earthRadiusKm = 6371.0

func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

func publicLotRoutes(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/lots", func(ctx *gin.Context) {
			var lots []models.ParkingLot
			db := db.GetDb()
			if err := db.
				Model(&models.ParkingLot{}).
				Where(&models.ParkingLot{Status: types.LOT_ACTIVE}).
				Order("name asc").
				Find(&lots).
				Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": lots})
		}).
		GET("/lots/nearby", func(ctx *gin.Context) {
			var query types.NearbyLotsQuery
			if err := ctx.ShouldBindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			radius := query.RadiusKm
			if radius == 0 {
				radius = 5
			}
			var lots []models.ParkingLot
			db := db.GetDb()
			if err := db.
				Model(&models.ParkingLot{}).
				Where(&models.ParkingLot{Status: types.LOT_ACTIVE}).
				Where("latitude IS NOT NULL AND longitude IS NOT NULL").
				Find(&lots).
				Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			type lotWithDistance struct {
				models.ParkingLot
				DistanceKm float64 `json:"distance_km"`
			}
			nearby := make([]lotWithDistance, 0)
			for _, lot := range lots {
				d := haversineKm(query.Latitude, query.Longitude, *lot.Latitude, *lot.Longitude)
				if d <= radius {
					nearby = append(nearby, lotWithDistance{ParkingLot: lot, DistanceKm: math.Round(d*100) / 100})
				}
			}
			sort.Slice(nearby, func(i, j int) bool {
				return nearby[i].DistanceKm < nearby[j].DistanceKm
			})
			ctx.JSON(http.StatusOK, gin.H{"data": nearby})
		}).
		GET("/lots/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var lot models.ParkingLot
			db := db.GetDb()
			if err := db.
				Where(&models.ParkingLot{ID: params.ID}).
				First(&lot).
				Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "lot not found"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": lot})
		})
	return g
}

func lotHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/lots", func(ctx *gin.Context) {
			var body types.CreateLotRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			operatorId := ctx.GetUint("id")
			lot := models.ParkingLot{
				Name:               body.Name,
				Slug:               slug.Make(body.Name),
				Address:            body.Address,
				Latitude:           body.Latitude,
				Longitude:          body.Longitude,
				Capacity:           body.Capacity,
				AvailabilityManual: int(body.Capacity),
				Hourly:             body.Hourly,
				DailyMax:           body.DailyMax,
				OperatorID:         operatorId,
			}
			if lot.Latitude == nil || lot.Longitude == nil {
				lat, lng := lib.GeocodeAddress(ctx, body.Address)
				lot.Latitude = lat
				lot.Longitude = lng
			}
			db := db.GetDb()
			if err := db.Create(&lot).Error; err != nil {
				log.Printf("Error creating lot: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": lot})
		}).
		PATCH("/lots/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.UpdateLotRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			operatorId := ctx.GetUint("id")
			updates := map[string]any{}
			if body.Name != nil {
				updates["name"] = *body.Name
				updates["slug"] = slug.Make(*body.Name)
			}
			if body.Address != nil {
				updates["address"] = *body.Address
			}
			if body.Hourly != nil {
				updates["hourly"] = *body.Hourly
			}
			if body.DailyMax != nil {
				updates["daily_max"] = *body.DailyMax
			}
			if len(updates) == 0 {
				ctx.Status(http.StatusNoContent)
				return
			}
			db := db.GetDb()
			res := db.
				Model(&models.ParkingLot{}).
				Where(&models.ParkingLot{ID: params.ID, OperatorID: operatorId}).
				Updates(updates)
			if res.Error != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": res.Error.Error()})
				return
			}
			if res.RowsAffected == 0 {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "lot not found"})
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		PUT("/lots/:id/availability", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.AdjustAvailabilityRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			operatorId := ctx.GetUint("id")
			db := db.GetDb()
			res := db.
				Model(&models.ParkingLot{}).
				Where(&models.ParkingLot{ID: params.ID, OperatorID: operatorId}).
				Update("availability_manual", gorm.Expr("GREATEST(LEAST(availability_manual + ?, capacity), 0)", body.Delta))
			if res.Error != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": res.Error.Error()})
				return
			}
			if res.RowsAffected == 0 {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "lot not found"})
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		DELETE("/lots/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			operatorId := ctx.GetUint("id")
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				if err := tx.
					Model(&models.ParkingLot{}).
					Where(&models.ParkingLot{ID: params.ID, OperatorID: operatorId}).
					Update("status", types.LOT_INACTIVE).
					Error; err != nil {
					return err
				}
				return tx.
					Where(&models.ParkingLot{ID: params.ID, OperatorID: operatorId}).
					Delete(&models.ParkingLot{}).
					Error
			})
			if err != nil {
				log.Printf("Error deleting lot %d: %s\n", params.ID, err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		GET("/lots/:id/reservations", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var query struct {
				State *string `form:"state"`
			}
			if err := ctx.ShouldBindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			operatorId := ctx.GetUint("id")
			db := db.GetDb()
			var lot models.ParkingLot
			if err := db.
				Where(&models.ParkingLot{ID: params.ID, OperatorID: operatorId}).
				First(&lot).
				Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "lot not found"})
				return
			}
			cond := models.Reservation{LotID: lot.ID}
			if query.State != nil {
				cond.State = types.ReservationState(*query.State)
			}
			var reservations []models.Reservation
			if err := db.
				Model(&models.Reservation{}).
				Where(&cond).
				Order("created_at DESC").
				Limit(100).
				Find(&reservations).
				Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": reservations})
		})
	return g
}
