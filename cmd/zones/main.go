// Command zones prints the support and resistance zones of a kline series,
// read from a CSV file or fetched live from Binance.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"cryptoPulseBot/internal/adapters/binanceclient"
	"cryptoPulseBot/internal/adapters/logger"
	"cryptoPulseBot/internal/domain"
	"cryptoPulseBot/internal/levels"
	"cryptoPulseBot/internal/utils"
)

func main() {
	file := flag.String("csv", "", "kline CSV produced by fetch_klines; fetch live when empty")
	symbol := flag.String("symbol", "BTCUSDT", "trading pair for live mode")
	interval := flag.String("interval", "1h", "kline interval for live mode")
	limit := flag.Int("limit", 100, "klines to fetch in live mode")
	defaults := levels.DefaultOptions()
	tolerance := flag.Float64("tolerance", defaults.ClusterTolerance, "relative cluster tolerance")
	minTouches := flag.Int("min-touches", defaults.MinTouches, "minimum extrema per zone")
	dedupe := flag.Float64("dedupe", defaults.DedupeTolerance, "relative dedupe tolerance")
	mode := flag.String("mode", "seed", "clustering mode: seed or union")
	swing := flag.Int("swing", 0, "only use swing extrema with this lookback (0 uses every candle)")
	flag.Parse()

	clusterMode, err := levels.ParseClusterMode(*mode)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	opts := levels.Options{
		ClusterTolerance: *tolerance,
		MinTouches:       *minTouches,
		DedupeTolerance:  *dedupe,
		Mode:             clusterMode,
		SwingLookback:    *swing,
	}

	klines, err := loadKlines(*file, strings.ToUpper(*symbol), *interval, *limit)
	if err != nil {
		log.Fatalf("FATAL: loading klines: %v", err)
	}
	zones, err := levels.DetectZones(klines, opts)
	if err != nil {
		log.Fatalf("FATAL: detecting zones: %v", err)
	}

	var price float64
	if len(klines) > 0 {
		price = klines[len(klines)-1].Close
	}
	if err := printZones(os.Stdout, zones, price, len(klines), opts); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
}

func loadKlines(file, symbol, interval string, limit int) ([]*domain.Kline, error) {
	if file != "" {
		return utils.ReadKlinesFromCSV(file)
	}

	_ = godotenv.Load()
	level, err := logger.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return nil, err
	}
	client, err := binanceclient.New(binanceclient.Config{
		BaseURL: os.Getenv("BINANCE_BASE_URL"),
		Logger:  logger.NewStdLogger(level),
	})
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return client.GetKlines(ctx, symbol, interval, limit)
}

func printZones(w io.Writer, zones []domain.Zone, price float64, candles int, opts levels.Options) error {
	fmt.Fprintf(w, "%d candles, last close %g, mode %s, tolerance %g, min touches %d\n\n",
		candles, price, opts.Mode, opts.ClusterTolerance, opts.MinTouches)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tPRICE\tTOUCHES\tDISTANCE")
	for _, z := range zones {
		dist := ""
		if price > 0 {
			dist = fmt.Sprintf("%+.2f%%", (z.Price-price)/price*100)
		}
		fmt.Fprintf(tw, "%s\t%g\t%d\t%s\n", z.Kind, z.Price, z.Touches, dist)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	nearest := levels.Nearest(zones, price)
	if nearest.Support != nil {
		fmt.Fprintf(w, "\nnearest support    %g (-%.2f%%)\n", nearest.Support.Price, nearest.DistToSupportPct)
	}
	if nearest.Resistance != nil {
		fmt.Fprintf(w, "nearest resistance %g (+%.2f%%)\n", nearest.Resistance.Price, nearest.DistToResistPct)
	}
	return nil
}
