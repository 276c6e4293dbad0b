package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/complaint-register/api/internal/app"
	"github.com/complaint-register/api/internal/complaint"
	"github.com/complaint-register/api/internal/config"
)

var (
	farmers    = []string{"Asha Patil", "Ravi Kumar", "Meena Shah", "Imran Sheikh", "Lakshmi Rao", "Gopal Yadav"}
	types      = []string{"Leakage", "Germination", "Packaging", "Water Issue", "Late Delivery"}
	dealers    = []string{"Dealer A", "Dealer B", "Green Agro", "Kisan Traders"}
	managers   = []string{"Manager X", "Manager Y", "Manager Z"}
	statuses   = []string{"Open", "In Progress", "Closed"}
	baseDate   = time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)
	dateLayout = complaint.CanonicalDateLayout
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	count, err := strconv.Atoi(envOrDefault("SEED_COUNT", "12"))
	if err != nil || count < 1 {
		log.Fatalf("SEED_COUNT must be a positive integer")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st, closeStore, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer closeStore()

	complaints := complaint.NewService(st, logger)
	existing, err := complaints.Count(ctx)
	if err != nil {
		log.Fatalf("count complaints: %v", err)
	}

	mapper := cfg.Mapper()
	created := 0
	for i := 0; i < count; i++ {
		rec := mapper.FromForm(demoValues(i), complaint.Attachments{})
		rec.Serial = complaint.NextSerial(existing + i)
		if err := complaints.CreateWithSerial(ctx, rec); err != nil {
			if errors.Is(err, complaint.ErrDuplicateSerial) {
				continue
			}
			log.Fatalf("seed %s: %v", rec.Serial, err)
		}
		created++
	}

	fmt.Printf("Seed completed. Created %d complaints (driver=%s)\n", created, cfg.DatabaseDriver)
}

func demoValues(i int) map[string]string {
	complained := baseDate.AddDate(0, 0, 3*i)
	values := map[string]string{
		"farmerName":         farmers[i%len(farmers)],
		"complaintBrief":     fmt.Sprintf("%s reported by farmer", types[i%len(types)]),
		"materialSupplyDate": complained.AddDate(0, 0, -10).Format(dateLayout),
		"complainDate":       complained.Format(dateLayout),
		"complainType":       types[i%len(types)],
		"dealerName":         dealers[i%len(dealers)],
		"areaManager":        managers[i%len(managers)],
		"status":             statuses[i%len(statuses)],
	}
	if values["status"] != "Open" {
		values["solveDate"] = complained.AddDate(0, 0, 2+i%5).Format(dateLayout)
	}
	if values["status"] == "Closed" {
		values["closeDate"] = complained.AddDate(0, 0, 7+i%7).Format(dateLayout)
		values["solutionDescription"] = "Replacement material dispatched."
		values["replacementReceived"] = complaint.ReplacementPending
		if i%2 == 0 {
			values["replacementReceived"] = complaint.ReplacementReceived
		}
	}
	return values
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
