package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"rob-assessor/internal/assessment"
	"rob-assessor/internal/database"
	"rob-assessor/internal/llm"
	"rob-assessor/internal/models"
	"rob-assessor/internal/ocr"
	"rob-assessor/internal/processor"

	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Parse command line flags
	pdfPath := flag.String("pdf", "", "Path to the trial PDF")
	author := flag.String("author", "", "First author of the trial")
	year := flag.String("year", "", "Publication year")
	registration := flag.String("reg", "", "Trial registration number (e.g. NCT12345678)")
	useOCR := flag.Bool("ocr", false, "Run OCR when the PDF yields little text (overrides USE_OCR)")
	listArchive := flag.Int("list-archive", 0, "Print the N most recent archived assessments and exit")
	flag.Parse()

	// Configuration & logger
	_ = godotenv.Load()
	config, err := loadConfig()
	if err != nil {
		return err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Archive
	store, err := database.Open(ctx, config.ArchiveBackend, config.PostgresURL, config.BadgerPath, log)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	if store != nil {
		defer store.Close()
	}

	if *listArchive > 0 {
		return printArchive(ctx, store, *listArchive)
	}

	trial := models.Trial{
		PDFPath:      *pdfPath,
		Author:       *author,
		Year:         *year,
		Registration: *registration,
	}
	if trial.PDFPath == "" || trial.Author == "" || trial.Year == "" || trial.Registration == "" {
		flag.Usage()
		return fmt.Errorf("-pdf, -author, -year and -reg are required")
	}

	// Model backend
	completer, err := llm.New(config.LLM())
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	log.Info("Using model", "backend", completer.Name(), "model", config.LLMModel, "timeout", config.RequestTimeout)

	var recognizer processor.Recognizer
	if config.ocrEnabled() {
		recognizer = ocr.NewYandexEngine(config.YandexOAuthToken, config.YandexFolderID, log)
	}

	assessor := assessment.New(
		processor.NewPDFProcessor(recognizer),
		completer,
		store,
		assessment.Options{
			GuidelinesPath: config.GuidelinesPath,
			TextDumpPath:   config.TextDumpPath,
			ResultPath:     config.ResultPath,
			UseOCR:         config.UseOCR || *useOCR,
			Timeout:        config.RequestTimeout,
			Model:          config.LLMModel,
		},
		log,
	)

	if _, err := assessor.Run(ctx, trial); err != nil {
		return err
	}

	fmt.Printf("Assessment written to %s\n", config.ResultPath)
	return nil
}

func printArchive(ctx context.Context, store database.Store, limit int) error {
	if store == nil {
		return fmt.Errorf("no archive configured, set ARCHIVE_BACKEND to postgres or badger")
	}

	records, err := store.ListAssessments(ctx, limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No archived assessments")
		return nil
	}

	lines := lo.Map(records, func(r models.ArchiveRecord, _ int) string {
		return fmt.Sprintf("%s  %-14s %s %s  %s/%s  %s",
			r.CreatedAt.Local().Format(time.DateTime),
			r.Source.Registration,
			r.Source.Author,
			r.Source.Year,
			r.Backend,
			r.Model,
			r.ID)
	})
	fmt.Println(strings.Join(lines, "\n"))
	return nil
}
