// Command weatherclient is the example client using the drop-in retry
// loop (C9) against weatherserver. Grounded on the teacher's e2e client
// mains: godotenv load, os.Getenv-driven configuration, a JSON result
// printed to stdout.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	gatekeeper "github.com/x402pay/gatekeeper"
	"github.com/x402pay/gatekeeper/client"
	"github.com/x402pay/gatekeeper/mock"
	"github.com/x402pay/gatekeeper/solana"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("weatherclient: no .env file found, using environment variables")
	}

	serverURL := os.Getenv("RESOURCE_SERVER_URL")
	if serverURL == "" {
		serverURL = "http://localhost:4021"
	}
	city := os.Getenv("CITY")
	if city == "" {
		city = "London"
	}

	payer, err := buildPayer()
	if err != nil {
		fmt.Printf("weatherclient: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, serverURL+"/weather?city="+city, nil)
	if err != nil {
		fmt.Printf("weatherclient: %v\n", err)
		os.Exit(1)
	}

	resp, err := client.Do(ctx, req, payer, 1)
	if err != nil {
		fmt.Printf("weatherclient: request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	var body interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		fmt.Printf("weatherclient: failed to decode response: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("status: %d\n", resp.StatusCode)
	pretty, _ := json.MarshalIndent(body, "", "  ")
	fmt.Println(string(pretty))
}

// buildPayer selects mock or solana payment per PAYMENT_MODE, spec.md §6's
// documented operator-facing environment variable.
func buildPayer() (gatekeeper.Payer, error) {
	switch os.Getenv("PAYMENT_MODE") {
	case "solana":
		privateKey := os.Getenv("SOLANA_PRIVATE_KEY")
		if privateKey == "" {
			return nil, gatekeeper.NewPaymentError(gatekeeper.ErrCodeConfigError,
				"SOLANA_PRIVATE_KEY environment variable is required for PAYMENT_MODE=solana", nil)
		}
		return solana.NewPayer(privateKey, os.Getenv("SOLANA_RPC_URL"), "")
	case "mock", "":
		return mock.NewPayer(os.Getenv("MOCK_SECRET"), os.Getenv("PAYER_ADDRESS")), nil
	default:
		return nil, gatekeeper.NewPaymentError(gatekeeper.ErrCodeConfigError,
			fmt.Sprintf("unrecognized PAYMENT_MODE %q (want mock or solana)", os.Getenv("PAYMENT_MODE")), nil)
	}
}
