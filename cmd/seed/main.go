package main

import (
	"context"
	"log"
	"os"
	"time"

	"venuebook/internal/database"
	"venuebook/internal/domain"
	jwtsvc "venuebook/internal/pkg/jwt"
	"venuebook/internal/repository"
)

// Local development seed: a couple of venues with weekly windows and a
// recurring event with ticket packages.
func main() {
	db, err := database.Connect("venuebook.db")
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := repository.AutoMigrate(db); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	log.Println("Cleaning old data...")
	db.Exec("DELETE FROM tickets")
	db.Exec("DELETE FROM bookings")
	db.Exec("DELETE FROM ticket_packages")
	db.Exec("DELETE FROM event_occurrences")
	db.Exec("DELETE FROM events")
	db.Exec("DELETE FROM availability_windows")
	db.Exec("DELETE FROM venues")

	ctx := context.Background()
	venues := repository.NewVenueRepository(db)
	events := repository.NewEventRepository(db)
	windows := repository.NewAvailabilityWindowRepository(db)

	log.Println("Creating venues...")
	hall := domain.Venue{
		OwnerID:  1,
		Name:     "Riverside Hall",
		Address:  "12 Embankment St",
		City:     "Almaty",
		Featured: true,
		Status:   domain.VenueActive,
	}
	if err := venues.Create(ctx, &hall); err != nil {
		log.Fatal("seed venue failed:", err)
	}

	loft := domain.Venue{
		OwnerID: 1,
		Name:    "Old Town Loft",
		Address: "3 Panfilov St",
		City:    "Almaty",
		Status:  domain.VenueActive,
	}
	if err := venues.Create(ctx, &loft); err != nil {
		log.Fatal("seed venue failed:", err)
	}

	log.Println("Creating availability windows...")
	now := time.Now()
	weekdays := []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}
	err = windows.Replace(ctx, domain.WindowOwnerVenue, hall.ID, []domain.AvailabilityWindow{
		{Days: weekdays, From: mustTime("09:00"), To: mustTime("18:00")},
		{Days: []time.Weekday{time.Saturday}, From: mustTime("10:00"), To: mustTime("16:00")},
	}, now)
	if err != nil {
		log.Fatal("seed windows failed:", err)
	}
	err = windows.Replace(ctx, domain.WindowOwnerVenue, loft.ID, []domain.AvailabilityWindow{
		{Days: []time.Weekday{time.Friday, time.Saturday, time.Sunday}, From: mustTime("12:00"), To: mustTime("23:00")},
	}, now)
	if err != nil {
		log.Fatal("seed windows failed:", err)
	}

	log.Println("Creating events...")
	nextFriday := upcoming(time.Friday)
	jazz := domain.Event{
		VenueID:     hall.ID,
		Title:       "Jazz Fridays",
		Description: "Live quartet, doors at seven.",
		Featured:    true,
		Status:      domain.EventActive,
	}
	for week := 0; week < 4; week++ {
		date := nextFriday.AddDate(0, 0, 7*week)
		jazz.Occurrences = append(jazz.Occurrences, domain.EventOccurrence{
			StartDate: date,
			EndDate:   date,
			StartTime: mustTime("19:00"),
			EndTime:   mustTime("23:00"),
			Packages: []domain.TicketPackage{
				{Title: "Standard", Price: 25, TicketsTotal: 80, TicketsRemaining: 80},
				{Title: "VIP Table", Price: 90, TicketsTotal: 12, TicketsRemaining: 12},
			},
		})
	}
	if err := events.Create(ctx, &jazz); err != nil {
		log.Fatal("seed event failed:", err)
	}

	log.Printf("Seed completed: venues=2 events=1 occurrences=%d", len(jazz.Occurrences))

	printDevTokens()
}

// printDevTokens emits ready-to-use bearer tokens so seeded data can be hit
// through the protected routes without a separate identity system.
func printDevTokens() {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "change-me-jwt-secret"
	}
	tokens := jwtsvc.New(secret, 24*time.Hour)

	userToken, err := tokens.Issue(1, "user")
	if err != nil {
		log.Fatal("issue dev token failed:", err)
	}
	adminToken, err := tokens.Issue(2, "admin")
	if err != nil {
		log.Fatal("issue dev token failed:", err)
	}
	log.Printf("Dev user token: %s", userToken)
	log.Printf("Dev admin token: %s", adminToken)
}

func mustTime(s string) domain.TimeOfDay {
	t, err := domain.ParseTimeOfDay(s)
	if err != nil {
		log.Fatal("bad time of day:", s)
	}
	return t
}

func upcoming(day time.Weekday) time.Time {
	now := time.Now()
	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	ahead := (int(day) - int(date.Weekday()) + 7) % 7
	if ahead == 0 {
		ahead = 7
	}
	return date.AddDate(0, 0, ahead)
}
