// Command weatherserver is the example priced server spec.md §1 calls out
// of scope beyond "interfaces only": a thin, obviously-fake weather lookup
// behind one priced route. It exists to exercise the gate end to end, not
// to be a real data provider. Grounded on the teacher's e2e/servers/gin/
// main.go: godotenv load, os.Getenv with required-var os.Exit(1), a
// startup banner, and SIGINT/SIGTERM graceful shutdown.
package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	gatekeeper "github.com/x402pay/gatekeeper"
	"github.com/x402pay/gatekeeper/mock"
	"github.com/x402pay/gatekeeper/middleware/nethttp"
	"github.com/x402pay/gatekeeper/solana"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("weatherserver: no .env file found, using environment variables")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "4021"
	}
	host := os.Getenv("HOST")
	if host == "" {
		host = "0.0.0.0"
	}

	recipient := os.Getenv("RECIPIENT_WALLET")
	if recipient == "" {
		fmt.Println("weatherserver: RECIPIENT_WALLET environment variable is required")
		os.Exit(1)
	}

	verifier, network, err := buildVerifier()
	if err != nil {
		fmt.Printf("weatherserver: %v\n", err)
		os.Exit(1)
	}

	gate := gatekeeper.NewGate(verifier)
	defer gate.Close()

	pricing := gatekeeper.PricingConfig{
		Price:     "0.001",
		Asset:     "USDC",
		Network:   network,
		Recipient: recipient,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","network":%q}`, network)
	})
	mux.HandleFunc("/weather", weatherHandler)

	gated := nethttp.New(gate, map[string]gatekeeper.PricingConfig{"/weather": pricing})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		fmt.Println("weatherserver: received shutdown signal, exiting")
		gate.Close()
		os.Exit(0)
	}()

	fmt.Printf(`
weatherserver listening on http://%s:%s
  network: %s
  recipient: %s
  GET /weather?city=... — priced at 0.001 USDC
  GET /health           — unpriced
`, host, port, network, recipient)

	server := &http.Server{Addr: host + ":" + port, Handler: gated.Wrap(mux)}
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fmt.Printf("weatherserver: %v\n", err)
		os.Exit(1)
	}
}

// buildVerifier selects mock or solana verification per PAYMENT_MODE,
// spec.md §6's documented operator-facing environment variable.
func buildVerifier() (gatekeeper.Verifier, string, error) {
	switch os.Getenv("PAYMENT_MODE") {
	case "solana":
		rpcURL := os.Getenv("SOLANA_RPC_URL")
		fetcher := solana.NewRPCFetcher(rpcURL)
		return solana.NewVerifier(fetcher, "", ""), "solana-devnet", nil
	case "mock", "":
		secret := os.Getenv("MOCK_SECRET")
		return mock.NewVerifier(secret), "mock", nil
	default:
		return nil, "", gatekeeper.NewPaymentError(gatekeeper.ErrCodeConfigError,
			fmt.Sprintf("unrecognized PAYMENT_MODE %q (want mock or solana)", os.Getenv("PAYMENT_MODE")), nil)
	}
}

// weatherHandler is the deliberately-fake data lookup spec.md §1 keeps out
// of the core's scope; it never touches a real weather provider.
func weatherHandler(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")
	if city == "" {
		city = "Unknown"
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"city":%q,"temp":15,"condition":"Cloudy","humidity":72,"unit":"celsius","generatedAt":%q}`,
		city, time.Now().UTC().Format(time.RFC3339))
}
