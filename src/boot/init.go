package boot

import (
	"airattix/src/db"
	"airattix/src/lib"
	"airattix/src/models"
	"airattix/src/utils"
	"log"
	"time"

	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.User{},
		&models.Listing{},
		&models.Booking{},
		&models.Token{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

// InitScheduler starts the background sweepers: confirmed bookings whose
// stay has passed roll over to completed, and pending tokens past their
// deadline are marked expired.
func InitScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	if _, err := lib.CreateCronJob(utils.CompleteElapsedBookings, time.Hour); err != nil {
		log.Printf("Error scheduling booking completion job: %s\n", err.Error())
	}
	if _, err := lib.CreateCronJob(utils.ExpireStaleTokens, time.Hour); err != nil {
		log.Printf("Error scheduling token expiry job: %s\n", err.Error())
	}
	sched.Start()
	log.Println("Jobs in queue:", len(sched.Jobs()))
}
