// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Command confsync snapshots desktop configuration trees into encrypted,
// signed profile archives and syncs them with a remote profile service.
//
// Usage:
//
//	confsync [flags] <verb> [verb flags] [args]
//
// Verbs: auth, create, upload, download, apply, delete, list, search,
// history, sync, version.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/MKhiriev/go-conf-sync/internal/adapter"
	"github.com/MKhiriev/go-conf-sync/internal/archive"
	"github.com/MKhiriev/go-conf-sync/internal/config"
	"github.com/MKhiriev/go-conf-sync/internal/crypto"
	"github.com/MKhiriev/go-conf-sync/internal/keystore"
	"github.com/MKhiriev/go-conf-sync/internal/logger"
	"github.com/MKhiriev/go-conf-sync/internal/service"
	"github.com/MKhiriev/go-conf-sync/internal/store"
	"github.com/MKhiriev/go-conf-sync/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	os.Exit(run())
}

func run() int {
	log := logger.NewLogger("confsync")

	cfg, err := config.GetClientConfig()
	if err != nil {
		log.Error().Err(err).Msg("error getting configs")
		return 1
	}
	if cfg.App.Version == "" {
		cfg.App.Version = versionString()
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		return 1
	}
	verb, verbArgs := args[0], args[1:]

	if verb == "version" {
		printBuildInfo()
		return 0
	}

	settings, err := config.LoadSettings(cfg.Storage.SettingsPath)
	if err != nil {
		log.Error().Err(err).Msg("error loading settings")
		return 1
	}

	app, err := bootstrap(cfg, &settings, log)
	if err != nil {
		log.Error().Err(err).Msg("error initialising application")
		return 1
	}

	ctx := log.WithContext(context.Background())
	if err = dispatch(ctx, app, verb, verbArgs); err != nil {
		log.Error().Err(err).Str("verb", verb).Msg("command failed")
		return 1
	}
	return 0
}

type application struct {
	cfg      *config.ClientConfig
	settings *config.Settings
	services *service.Services
}

// bootstrap assembles the full dependency graph: keys, cipher, signer,
// archiver, local store, remote adapter.
func bootstrap(cfg *config.ClientConfig, settings *config.Settings, log *logger.Logger) (*application, error) {
	keys := keystore.NewKeyStore(cfg.Storage.ConfigDir, cfg.Storage.KeysDir, cfg.Crypto.KDFIterations, log)

	if _, err := keys.GetOrCreateDeviceIdentity(cfg.App.DeviceName); err != nil {
		return nil, fmt.Errorf("device identity: %w", err)
	}

	var cipher crypto.Cipher
	if settings.EncryptionEnabled {
		masterKey, err := keys.GetOrCreateMasterKey()
		if err != nil {
			return nil, fmt.Errorf("master key: %w", err)
		}
		cipher, err = crypto.NewAEADCipher(masterKey)
		if err != nil {
			return nil, fmt.Errorf("cipher: %w", err)
		}
	} else {
		cipher = crypto.NewPassthroughCipher()
	}

	privatePEM, publicPEM, err := keys.GetOrCreateDeviceKeypair()
	if err != nil {
		return nil, fmt.Errorf("device keypair: %w", err)
	}
	signer, err := crypto.NewSigner(privatePEM, publicPEM)
	if err != nil {
		return nil, fmt.Errorf("signer: %w", err)
	}

	archiver := archive.NewArchiver(cfg.Archive.ConfigBase, cfg.Archive.SyncRoots, cfg.Archive.CompressionLevel, log)

	storages, err := store.NewStorages(cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("local storage: %w", err)
	}

	remote := adapter.NewHTTPServerAdapter(adapter.HTTPClientConfig{
		BaseURL: cfg.Adapter.BaseURL,
		Timeout: cfg.Adapter.RequestTimeout,
	})
	if settings.APIToken != "" {
		remote.SetToken(settings.APIToken)
	}

	return &application{
		cfg:      cfg,
		settings: settings,
		services: service.NewServices(storages, remote, archiver, cipher, signer, cfg, settings),
	}, nil
}

func dispatch(ctx context.Context, app *application, verb string, args []string) error {
	switch verb {
	case "auth":
		return cmdAuth(ctx, app, args)
	case "create":
		return cmdCreate(ctx, app, args)
	case "upload":
		return cmdUpload(ctx, app, args)
	case "download":
		return cmdDownload(ctx, app, args)
	case "apply":
		return cmdApply(ctx, app, args)
	case "delete":
		return cmdDelete(ctx, app, args)
	case "list":
		return cmdList(ctx, app, args)
	case "search":
		return cmdSearch(ctx, app, args)
	case "history":
		return cmdHistory(ctx, app, args)
	case "sync":
		return cmdSync(ctx, app, args)
	default:
		printUsage()
		return fmt.Errorf("unknown verb: %s", verb)
	}
}

func cmdAuth(ctx context.Context, app *application, args []string) error {
	fs := flag.NewFlagSet("auth", flag.ContinueOnError)
	username := fs.String("username", "", "remote account username")
	password := fs.String("password", "", "remote account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" || *password == "" {
		return errors.New("auth requires -username and -password")
	}

	if err := app.services.ProfileService.Authenticate(ctx, models.Credentials{
		Username: *username,
		Password: *password,
	}); err != nil {
		return err
	}

	fmt.Printf("authenticated as %s\n", app.settings.Username)
	return nil
}

func cmdCreate(ctx context.Context, app *application, args []string) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	description := fs.String("desc", "", "profile description")
	tags := fs.String("tags", "", "comma-separated tags")
	public := fs.Bool("public", false, "mark profile as public")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("create requires exactly one argument: <name>")
	}

	profile, err := app.services.ProfileService.CreateFromCurrent(
		ctx, fs.Arg(0), *description, splitTags(*tags), *public)
	if err != nil {
		return err
	}

	fmt.Printf("created profile %s (%s, %d bytes)\n", profile.ID, profile.Name, profile.Size)
	return nil
}

func cmdUpload(ctx context.Context, app *application, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("upload requires exactly one argument: <profile-id>")
	}

	if err := app.services.ProfileService.Upload(ctx, fs.Arg(0)); err != nil {
		return err
	}

	fmt.Printf("uploaded profile %s\n", fs.Arg(0))
	return nil
}

func cmdDownload(ctx context.Context, app *application, args []string) error {
	fs := flag.NewFlagSet("download", flag.ContinueOnError)
	apply := fs.Bool("apply", false, "apply the profile after a verified download")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("download requires exactly one argument: <profile-id>")
	}

	profile, err := app.services.ProfileService.Download(ctx, fs.Arg(0), *apply)
	if err != nil {
		return err
	}

	fmt.Printf("downloaded profile %s (%s)\n", profile.ID, profile.Name)
	return nil
}

func cmdApply(ctx context.Context, app *application, args []string) error {
	fs := flag.NewFlagSet("apply", flag.ContinueOnError)
	noBackup := fs.Bool("no-backup", false, "skip the backup snapshot before applying")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("apply requires exactly one argument: <profile-id>")
	}

	backup := app.settings.BackupBeforeApply && !*noBackup
	if err := app.services.ProfileService.Apply(ctx, fs.Arg(0), backup); err != nil {
		return err
	}

	fmt.Printf("applied profile %s\n", fs.Arg(0))
	return nil
}

func cmdDelete(ctx context.Context, app *application, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	alsoRemote := fs.Bool("remote", false, "also delete the remote copy")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("delete requires exactly one argument: <profile-id>")
	}

	if err := app.services.ProfileService.Delete(ctx, fs.Arg(0), *alsoRemote); err != nil {
		return err
	}

	fmt.Printf("deleted profile %s\n", fs.Arg(0))
	return nil
}

func cmdList(ctx context.Context, app *application, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	_ = fs.Bool("local", true, "list locally cached profiles")
	if err := fs.Parse(args); err != nil {
		return err
	}

	profiles, err := app.services.ProfileService.ListLocal(ctx)
	if err != nil {
		return err
	}

	for _, p := range profiles {
		synced := "never"
		if p.SyncedAt != nil {
			synced = p.SyncedAt.Format("2006-01-02 15:04")
		}
		fmt.Printf("%s\t%s\t%d bytes\tpublic=%t\tsynced=%s\n", p.ID, p.Name, p.Size, p.Public, synced)
	}
	return nil
}

func cmdSearch(ctx context.Context, app *application, args []string) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	query := fs.String("query", "", "free-text query")
	tags := fs.String("tags", "", "comma-separated tags")
	author := fs.String("author", "", "filter by author")
	if err := fs.Parse(args); err != nil {
		return err
	}

	profiles, err := app.services.ProfileService.Search(ctx, models.SearchRequest{
		Query:  *query,
		Tags:   splitTags(*tags),
		Author: *author,
	})
	if err != nil {
		return err
	}

	for _, p := range profiles {
		fmt.Printf("%s\t%s\tby %s\t%d downloads\trating %.1f\n", p.ID, p.Name, p.Author, p.Downloads, p.Rating)
	}
	return nil
}

func cmdHistory(ctx context.Context, app *application, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("history requires exactly one argument: <profile-id>")
	}

	records, err := app.services.ProfileService.History(ctx, fs.Arg(0))
	if err != nil {
		return err
	}

	for _, r := range records {
		status := "ok"
		if !r.Success {
			status = "failed: " + r.ErrorMessage
		}
		fmt.Printf("%s\t%s\t%s\n", r.Timestamp.Format("2006-01-02 15:04:05"), r.Action, status)
	}
	return nil
}

func cmdSync(ctx context.Context, app *application, args []string) error {
	fs := flag.NewFlagSet("sync", flag.ContinueOnError)
	watch := fs.Bool("watch", false, "keep running and auto-sync on the configured interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := app.services.ProfileService.AutoSync(ctx); err != nil {
		return err
	}
	if !*watch {
		return nil
	}

	watchCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app.services.SyncJob.Start(watchCtx, app.cfg.Workers.SyncInterval)
	<-watchCtx.Done()
	app.services.SyncJob.Stop()
	return nil
}

func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage: confsync [flags] <verb> [verb flags] [args]

verbs:
  auth      -username <u> -password <p>   authenticate against the remote
  create    [-desc d] [-tags a,b] [-public] <name>
  upload    <profile-id>
  download  [-apply] <profile-id>
  apply     [-no-backup] <profile-id>
  delete    [-remote] <profile-id>
  list      [-local]
  search    [-query q] [-tags a,b] [-author a]
  history   <profile-id>
  sync      [-watch]
  version`)
}

func printBuildInfo() {
	fmt.Printf("Build version: %s\n", orNA(buildVersion))
	fmt.Printf("Build date: %s\n", orNA(buildDate))
	fmt.Printf("Build commit: %s\n", orNA(buildCommit))
}

func versionString() string {
	if buildVersion == "" {
		return "dev"
	}
	return buildVersion
}

func orNA(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}
