package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"cryptoPulseBot/internal/adapters/binanceclient"
	"cryptoPulseBot/internal/adapters/logger"
	"cryptoPulseBot/internal/utils"
)

func main() {
	symbol := flag.String("symbol", "ETHUSDT", "trading pair")
	interval := flag.String("interval", "1h", "kline interval")
	days := flag.Int("days", 90, "how many days back to fetch")
	out := flag.String("out", "", "output CSV file (default data/<symbol>_<interval>_<start>_to_<end>.csv)")
	flag.Parse()

	// Keys are optional; klines are a public endpoint.
	_ = godotenv.Load()
	level, err := logger.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	appLogger := logger.NewStdLogger(level)
	ctx := context.Background()

	client, err := binanceclient.New(binanceclient.Config{
		APIKey:    os.Getenv("BINANCE_API_KEY"),
		SecretKey: os.Getenv("BINANCE_API_SECRET"),
		BaseURL:   os.Getenv("BINANCE_BASE_URL"),
		Logger:    appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize Binance client: %v", err)
	}

	sym := strings.ToUpper(*symbol)
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -*days)

	fmt.Printf("Fetching klines for %s %s from %s to %s...\n", sym, *interval, start.Format(time.RFC3339), end.Format(time.RFC3339))
	klines, err := client.GetKlinesRange(ctx, sym, *interval, start, end)
	if err != nil {
		log.Fatalf("Error fetching klines: %v", err)
	}
	appLogger.Info(ctx, "Fetched klines", map[string]interface{}{"count": len(klines)})

	filename := *out
	if filename == "" {
		filename = fmt.Sprintf("data/%s_%s_%s_to_%s.csv", sym, *interval, start.Format("20060102"), end.Format("20060102"))
	}
	if err := utils.WriteKlinesToCSV(klines, filename); err != nil {
		log.Fatalf("Error writing CSV: %v", err)
	}
	appLogger.Info(ctx, "Saved klines", map[string]interface{}{"filename": filename})
}
