package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron"

	config "github.com/zacmb/contentsched/configs"
	"github.com/zacmb/contentsched/internal/airtable"
	"github.com/zacmb/contentsched/internal/blob"
	"github.com/zacmb/contentsched/internal/devices"
	"github.com/zacmb/contentsched/internal/models"
	"github.com/zacmb/contentsched/internal/operator"
	"github.com/zacmb/contentsched/internal/repository"
	"github.com/zacmb/contentsched/internal/service"
	"github.com/zacmb/contentsched/pkg/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	mode := flag.String("mode", "schedule", "schedule or targets")
	modelFlag := flag.String("model", "", "model to process (required in unattended mode)")
	deviceFlag := flag.String("device", "", "device id (required in unattended mode)")
	usernamesFile := flag.String("usernames", "", "usernames file for targets mode")
	flag.Parse()

	cfg := config.LoadConfig()
	if cfg.AirtablePAT == "" {
		log.Fatal("Missing AIRTABLE_PAT")
	}
	if cfg.BaseDir == "" {
		log.Fatal("Missing DEVICE_BASE_DIR")
	}

	creators, err := config.LoadCreators(cfg.CreatorsFile)
	if err != nil {
		log.Fatalf("Failed to load creators config: %v", err)
	}

	client := airtable.NewClient(cfg.AirtablePAT, cfg.AirtableBaseURL)
	prompter := operator.NewPrompter(os.Stdin, os.Stdout)

	if *mode == "targets" {
		runTargets(cfg, client, creators, prompter, *usernamesFile)
		return
	}

	driveSource := blob.NewDriveSource(cfg.Google)
	var s3Source blob.AssetSource
	if cfg.S3.AccountID != "" {
		s3Source = blob.NewS3Source(cfg.S3)
	}
	source := blob.NewRouterSource(driveSource, s3Source)

	var translate utils.PathTranslator
	if cfg.LinuxShared != "" && cfg.WindowsShared != "" {
		translate = utils.NewSharedFolderTranslator(cfg.LinuxShared, cfg.WindowsShared)
	}

	fetchService := service.NewFetchService(source)
	insertService := service.NewInsertService(translate)
	syncService := service.NewSyncService(client)

	if cfg.SyncSchedule != "" {
		runUnattended(cfg, client, creators, fetchService, insertService, syncService, *modelFlag, *deviceFlag)
		return
	}

	resolverService := service.NewResolverService(prompter)
	pipeline := service.NewPipelineService(fetchService, resolverService, insertService, syncService)

	runInteractive(cfg, client, creators, pipeline, prompter)
}

func runInteractive(cfg *config.Config, client *airtable.Client, creators *config.Creators, pipeline service.PipelineService, prompter *operator.Prompter) {
	ctx := context.Background()

	deviceList, err := devices.ListDevices(cfg.BaseDir)
	if err != nil {
		log.Fatalf("Failed to list devices: %v", err)
	}
	device, err := prompter.SelectDevice(deviceList)
	if err != nil {
		log.Fatalf("%v", err)
	}

	model, creator, err := selectModel(creators, prompter)
	if err != nil {
		log.Fatalf("%v", err)
	}

	accounts, err := devices.ListAccounts(cfg.BaseDir, device)
	if err != nil {
		log.Fatalf("Failed to list accounts: %v", err)
	}

	if creator.ActiveAccountsTableID != "" {
		active, err := client.ListUsernames(ctx, creator.BaseID, creator.ActiveAccountsTableID)
		if err != nil {
			log.Fatalf("Failed to fetch active accounts: %v", err)
		}
		accounts = devices.FilterActive(accounts, active)
	}
	if len(accounts) == 0 {
		log.Fatal("No valid accounts found on the device for this model")
	}

	selected, err := prompter.SelectAccounts(accounts)
	if err != nil {
		log.Fatalf("%v", err)
	}

	limit, err := prompter.RecordLimit()
	if err != nil {
		log.Fatalf("%v", err)
	}

	var succeeded, failed []string
	for _, account := range selected {
		report, err := runAccount(ctx, cfg, client, creator, pipeline, device, model, account, limit, prompter.ConfirmRetry)
		if err != nil {
			log.Printf("Account %s failed: %v", account, err)
			failed = append(failed, account)
			continue
		}
		printReport(report)
		if report.Succeeded() > 0 {
			succeeded = append(succeeded, account)
		} else {
			failed = append(failed, account)
		}
	}

	fmt.Println("\nUpdate Summary:")
	fmt.Printf("Successful accounts: %d\n", len(succeeded))
	if len(succeeded) > 0 {
		fmt.Println("   -> " + strings.Join(succeeded, ", "))
	}
	fmt.Printf("Failed accounts: %d\n", len(failed))
	if len(failed) > 0 {
		fmt.Println("   -> " + strings.Join(failed, ", "))
	}
}

// runUnattended repeats the run on the configured cron schedule with no
// prompts: duplicates are skipped and retries auto-confirmed.
func runUnattended(cfg *config.Config, client *airtable.Client, creators *config.Creators, fetch service.FetchService, insert service.InsertService, sync service.SyncService, model, device string) {
	if model == "" || device == "" {
		log.Fatal("Unattended mode requires -model and -device")
	}
	creator, ok := creators.Creators[model]
	if !ok {
		log.Fatalf("Unknown model: %s", model)
	}

	resolver := service.NewResolverService(service.SkipAllPolicy{})
	pipeline := service.NewPipelineService(fetch, resolver, insert, sync)

	run := func() {
		ctx := context.Background()
		accounts, err := devices.ListAccounts(cfg.BaseDir, device)
		if err != nil {
			log.Printf("Failed to list accounts: %v", err)
			return
		}
		for _, account := range accounts {
			report, err := runAccount(ctx, cfg, client, creator, pipeline, device, model, account, 0, nil)
			if err != nil {
				log.Printf("Account %s failed: %v", account, err)
				continue
			}
			printReport(report)
		}
	}

	log.Printf("Running on schedule %q", cfg.SyncSchedule)
	c := cron.New()
	if err := c.AddFunc(cfg.SyncSchedule, run); err != nil {
		log.Fatalf("Invalid SYNC_SCHEDULE: %v", err)
	}
	c.Run()
}

func runAccount(ctx context.Context, cfg *config.Config, client *airtable.Client, creator config.Creator, pipeline service.PipelineService, device, model, account string, limit int, confirmRetry func(int) bool) (*models.RunReport, error) {
	dbPath := devices.DatabasePath(cfg.BaseDir, device, account)
	repo, err := repository.Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer repo.Close()

	records, err := client.ListRecords(ctx, creator.BaseID, creator.TableID, creator.ViewID, limit)
	if err != nil {
		return nil, err
	}
	candidates := airtable.ToCandidates(records)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no content found for account %s", account)
	}

	log.Printf("Processing %d candidates for %s", len(candidates), account)

	report := pipeline.Run(ctx, service.RunOptions{
		Account:      account,
		BaseID:       creator.BaseID,
		TableID:      creator.TableID,
		OutputDir:    fmt.Sprintf("%s/%s/media", cfg.SharedDir, model),
		Repo:         repo,
		Candidates:   candidates,
		ConfirmRetry: confirmRetry,
	})
	return report, nil
}

func runTargets(cfg *config.Config, client *airtable.Client, creators *config.Creators, prompter *operator.Prompter, usernamesFile string) {
	if usernamesFile == "" {
		log.Fatal("Targets mode requires -usernames")
	}

	targets := service.NewTargetsService()
	usernames, err := targets.ReadUsernames(usernamesFile)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if len(usernames) == 0 {
		log.Fatal("No usernames found")
	}

	deviceList, err := devices.ListDevices(cfg.BaseDir)
	if err != nil {
		log.Fatalf("Failed to list devices: %v", err)
	}
	device, err := prompter.SelectDevice(deviceList)
	if err != nil {
		log.Fatalf("%v", err)
	}

	accounts, err := devices.ListAccounts(cfg.BaseDir, device)
	if err != nil {
		log.Fatalf("Failed to list accounts: %v", err)
	}
	selected, err := prompter.SelectAccounts(accounts)
	if err != nil {
		log.Fatalf("%v", err)
	}

	results, errs := targets.UpdateAccounts(cfg.BaseDir, device, selected, usernames)
	fmt.Printf("\nUpdated %d account(s)\n", len(results))
	for _, err := range errs {
		log.Printf("Error: %v", err)
	}
}

func selectModel(creators *config.Creators, prompter *operator.Prompter) (string, config.Creator, error) {
	names := make([]string, 0, len(creators.Creators))
	for name := range creators.Creators {
		names = append(names, name)
	}
	sort.Strings(names)

	model, err := prompter.SelectFrom("model", names)
	if err != nil {
		return "", config.Creator{}, err
	}
	return model, creators.Creators[model], nil
}

func printReport(report *models.RunReport) {
	fmt.Printf("\nAccount %s: %d succeeded, %d skipped, %d failed\n",
		report.Account, report.Succeeded(), report.Skipped(), report.Failed())
	for _, rec := range report.Records {
		if rec.Failed() {
			fmt.Printf("  failed %s (%s): %s\n", rec.Candidate.RemoteID, rec.FailedAt, rec.Reason)
		}
	}
	if report.FailedBatches > 0 {
		fmt.Printf("  %d confirmation batch(es) failed; local commits are kept\n", report.FailedBatches)
	}
}
