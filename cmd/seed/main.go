package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"math/rand/v2"

	"eventcheck/internal/attendance"
	"eventcheck/internal/config"
	"eventcheck/internal/registration"
	"eventcheck/internal/store"
)

type sample struct {
	name  string
	email string
}

var sampleParticipants = []sample{
	{"Ram Kumar", "ram.kumar@example.com"},
	{"Priya Sharma", "priya.sharma@example.com"},
	{"Arjun Singh", "arjun.singh@example.com"},
	{"Kavya Patel", "kavya.patel@example.com"},
	{"Vikram Gupta", "vikram.gupta@example.com"},
	{"Sneha Reddy", "sneha.reddy@example.com"},
	{"Rahul Verma", "rahul.verma@example.com"},
	{"Ananya Joshi", "ananya.joshi@example.com"},
	{"Karthik Nair", "karthik.nair@example.com"},
	{"Divya Iyer", "divya.iyer@example.com"},
}

// Seeds sample participants and marks attendance for roughly 60% of them.
func main() {
	markRatio := flag.Float64("mark", 0.6, "fraction of participants to mark present")
	flag.Parse()

	cfg := config.Load()
	ctx := context.Background()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()
	if err := store.CreateSchema(db.Client); err != nil {
		log.Fatalf("schema: %v", err)
	}

	participants := registration.NewRepository(db.Client)
	ledger := attendance.NewRepository(db.Client)
	directory := registration.NewService(participants, cfg.RegIDPrefix)
	marking := attendance.NewService(participants, ledger, cfg.DefaultLocation)

	registered, marked := 0, 0
	for _, s := range sampleParticipants {
		p, err := directory.Register(ctx, s.name, s.email)
		if errors.Is(err, registration.ErrDuplicateEmail) {
			log.Printf("skipping %s: already registered", s.email)
			continue
		}
		if err != nil {
			log.Fatalf("register %s: %v", s.email, err)
		}
		registered++

		if rand.Float64() >= *markRatio {
			continue
		}
		scannedBy := "scanner"
		if rand.IntN(2) == 0 {
			scannedBy = "manual"
		}
		if _, err := marking.Mark(ctx, p.RegistrationID, scannedBy, cfg.DefaultLocation); err != nil {
			var alreadyMarked *attendance.AlreadyMarkedError
			if !errors.As(err, &alreadyMarked) {
				log.Fatalf("mark %s: %v", p.RegistrationID, err)
			}
			continue
		}
		marked++
	}

	log.Printf("seed complete: %d registered, %d marked present", registered, marked)
}
