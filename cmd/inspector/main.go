package main

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/cbgate/cbgate/internal/config"
	"github.com/cbgate/cbgate/internal/exchange/coinbase"
	"github.com/joho/godotenv"
)

// inspector exercises the credential/token path end to end by listing
// account balances against the live API.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	creds, err := coinbase.LoadCredentials(cfg.Coinbase.CredentialsEnv)
	if err != nil {
		log.Fatalf("Failed to load credentials: %v", err)
	}
	fmt.Printf("Credentials loaded for account: %s\n", creds.Name)

	client, err := coinbase.New(creds, coinbase.Options{
		BaseURL: cfg.Coinbase.APIBaseURL,
	})
	if err != nil {
		log.Fatalf("Failed to initialize client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	balances, err := client.ListBalances(ctx)
	if err != nil {
		log.Fatalf("Connectivity check failed: %v", err)
	}

	if len(balances) == 0 {
		fmt.Println("Connected, but no balances in known currencies")
		return
	}

	currencies := make([]string, 0, len(balances))
	for currency := range balances {
		currencies = append(currencies, currency)
	}
	sort.Strings(currencies)

	fmt.Println("--- Balances ---")
	for _, currency := range currencies {
		fmt.Printf("%-6s %s\n", currency, balances[currency])
	}
}
