// Command calculate runs the wallet tax pipeline once and prints the summary.
// It needs neither PostgreSQL nor Redis: nothing is stored or cached.
//
//	calculate -wallet <address> [-short 0.25] [-long 0.15] [-csv report.csv]
//	calculate -input transactions.json [-short 0.3]
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vertax/config"
	"vertax/internal/adapter/provider"
	"vertax/internal/adapter/render"
	"vertax/internal/adapter/solana"
	"vertax/internal/core/domain"
	"vertax/internal/core/ports"
	"vertax/internal/service"
	"vertax/pkg/logger"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

type options struct {
	wallet     string
	input      string
	short      string
	long       string
	csvPath    string
	configPath string
}

func main() {
	var opts options
	flag.StringVar(&opts.wallet, "wallet", "", "Solana wallet address to process")
	flag.StringVar(&opts.input, "input", "", "JSON file with raw transactions, processed instead of a wallet")
	flag.StringVar(&opts.short, "short", "", "short-term rate override, e.g. 0.25")
	flag.StringVar(&opts.long, "long", "", "long-term rate override, e.g. 0.15")
	flag.StringVar(&opts.csvPath, "csv", "", "write a CSV report to this path")
	flag.StringVar(&opts.configPath, "config", "", "path to config.yaml")
	flag.Parse()

	if (opts.wallet == "") == (opts.input == "") {
		fmt.Fprintln(os.Stderr, "exactly one of -wallet or -input is required")
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "calculate: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, out io.Writer) error {
	_ = godotenv.Load()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if opts.short != "" {
		cfg.Tax.ShortTermRate = opts.short
	}
	if opts.long != "" {
		cfg.Tax.LongTermRate = opts.long
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	rates, err := service.ParseRates(cfg.Tax.ShortTermRate, cfg.Tax.LongTermRate)
	if err != nil {
		return err
	}

	providers, err := provider.FromConfig(cfg.Providers, log)
	if err != nil {
		return err
	}
	chain, err := service.NewProviderChain(log, providers...)
	if err != nil {
		return err
	}

	// Reports are never persisted here, so an ephemeral key is fine when none is configured.
	aesKey := cfg.Privacy.AESKey
	if aesKey == "" {
		if aesKey, err = randomHexKey(); err != nil {
			return err
		}
	}
	encSvc, err := service.NewAESEncryptionService(aesKey)
	if err != nil {
		return err
	}
	protector, err := service.NewWalletProtector(encSvc, cfg.Privacy.FingerprintKey)
	if err != nil {
		return err
	}

	svc := service.NewReportService(
		solana.NewClient(cfg.Solana.RPCURL, cfg.Solana.SignatureLimit, cfg.Solana.Timeout, log),
		solana.NewNormalizer(log),
		service.NewWalletTaxProcessor(log),
		func() ports.PriceResolver { return service.NewPriceResolver(chain, log) },
		protector,
		nil,
		nil,
		service.ReportOptions{},
		log,
	)

	var report *domain.TaxReport
	if opts.input != "" {
		raws, err := readRawTransactions(opts.input)
		if err != nil {
			return err
		}
		summary, err := svc.Calculate(ctx, raws, rates)
		if err != nil {
			return err
		}
		report = &domain.TaxReport{
			ID:             uuid.New(),
			Rates:          rates,
			Summary:        *summary,
			ProcessedCount: len(summary.Results),
			SkippedCount:   len(summary.Skipped),
			CreatedAt:      time.Now().UTC(),
		}
	} else {
		report, err = svc.GenerateWalletReport(ctx, opts.wallet, rates)
		if err != nil {
			return err
		}
	}

	printSummary(out, report)

	if opts.csvPath != "" {
		if err := writeCSV(opts.csvPath, report); err != nil {
			return err
		}
		fmt.Fprintf(out, "CSV report written to %s\n", opts.csvPath)
	}
	return nil
}

func readRawTransactions(path string) ([]domain.RawTransaction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	// Accept either a bare array or the {"transactions": [...]} API body.
	var raws []domain.RawTransaction
	if err := json.Unmarshal(data, &raws); err == nil {
		return raws, nil
	}
	var body struct {
		Transactions []domain.RawTransaction `json:"transactions"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if body.Transactions == nil {
		return nil, errors.New("input has no transactions")
	}
	return body.Transactions, nil
}

func printSummary(w io.Writer, report *domain.TaxReport) {
	s := report.Summary
	fmt.Fprintf(w, "Rates: short-term %s, long-term %s\n", report.Rates.ShortTerm, report.Rates.LongTerm)
	for _, r := range s.Results {
		fmt.Fprintf(w, "  %-12.12s %-8s profit %14s  %4dd %-10s tax %12s\n",
			r.Signature, r.TokenSymbol, r.Profit.StringFixed(2), r.HoldingPeriodDays, r.Classification, r.Tax.StringFixed(2))
	}
	for _, sk := range s.Skipped {
		fmt.Fprintf(w, "  %-12.12s skipped [%s] %s\n", sk.Signature, sk.Code, sk.Reason)
	}
	fmt.Fprintf(w, "Processed: %d  Skipped: %d\n", report.ProcessedCount, report.SkippedCount)
	fmt.Fprintf(w, "Total profit: %s\n", s.TotalProfit.StringFixed(2))
	fmt.Fprintf(w, "Total tax:    %s\n", s.TotalTax.StringFixed(2))
}

func writeCSV(path string, report *domain.TaxReport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := render.NewCSVRenderer().Render(f, report); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func randomHexKey() (string, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("generating key: %w", err)
	}
	return hex.EncodeToString(key), nil
}
