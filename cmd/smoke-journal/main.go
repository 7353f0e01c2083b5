package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"tacc.org/internal/ledger"
	"tacc.org/internal/ledger/remote"
)

func main() {
	addr := os.Getenv("TACC_GRPC_ADDR")
	if addr == "" {
		addr = "localhost:9091"
	}

	client, err := remote.Dial(addr)
	if err != nil {
		log.Fatalf("dial tacc-api at %s: %v", addr, err)
	}
	defer client.Close()

	svc := remote.NewService(client)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	j, err := svc.CreateJournal(ctx, ledger.JournalSpec{Name: "smoke", Labels: []string{"GBP", "USD"}})
	if err != nil {
		log.Fatalf("create journal: %v", err)
	}

	key := "smoke-" + uuid.NewString()
	for i := 0; i < 2; i++ {
		if _, err := svc.Post(ctx, j.ID, ledger.Posting{AccountID: "cash", Debits: []string{"420", "17.5"}}, key); err != nil {
			log.Fatalf("post cash: %v", err)
		}
	}
	if _, err := svc.Post(ctx, j.ID, ledger.Posting{AccountID: "sales", Credits: []string{"400"}}, ""); err != nil {
		log.Fatalf("post sales: %v", err)
	}

	sum, err := svc.Summary(ctx, j.ID)
	if err != nil {
		log.Fatalf("summary: %v", err)
	}
	if sum.Balanced {
		log.Fatalf("expected unbalanced journal, got %s", sum.Total.T)
	}

	if _, err := svc.AutoBalance(ctx, j.ID, "suspense"); err != nil {
		log.Fatalf("auto-balance: %v", err)
	}
	sum, err = svc.Summary(ctx, j.ID)
	if err != nil {
		log.Fatalf("summary: %v", err)
	}
	if !sum.Balanced {
		log.Fatalf("journal not balanced after auto-balance: %s", sum.Total.T)
	}

	info, err := svc.GetJournal(ctx, j.ID)
	if err != nil {
		log.Fatalf("get journal: %v", err)
	}
	if info.Postings != 3 {
		log.Fatalf("idempotent replay was applied twice: %d postings", info.Postings)
	}

	fmt.Printf("smoke test passed: journal=%s total=%s\n", j.ID, sum.Total.T)
}
