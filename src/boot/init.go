package boot

import (
	"log"
	"plm/src/config"
	"plm/src/db"
	"plm/src/lib"
	"plm/src/lifecycle"
	"plm/src/models"
	"time"

	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.User{},
		&models.ParkingLot{},
		&models.Reservation{},
		&models.SubscriptionPlan{},
		&models.OperatorSubscription{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

// InitScheduler starts the background sweep that expires reservations
// left unpaid past the hold window.
func InitScheduler() {
	jobId, err := lib.CreateCronJob(func(ttl time.Duration) {
		lifecycle.ExpireStalePending(ttl)
	}, time.Minute, config.PendingPaymentTTL)
	if err != nil {
		log.Printf("Error scheduling expiry sweep: %s\n", err.Error())
		return
	}
	log.Printf("Job ID: %s\n", *jobId)
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	sched.Start()
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	err = sched.Shutdown()
	if err != nil {
		log.Println("An error has occurred while shutting stopping Scheduler. Check logs for info")
		return
	}
}
