package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"

	"portraitstudio/internal/auth"
	"portraitstudio/internal/domain"
	"portraitstudio/internal/infra"
	"portraitstudio/internal/notify"
	"portraitstudio/internal/portrait"
	imageprovider "portraitstudio/internal/providers/image"
	"portraitstudio/internal/storage"
)

type cliOptions struct {
	email      string
	password   string
	locale     string
	list       bool
	noDownload bool
	fields     map[domain.Field]string
}

func parseFlags(args []string, stderr io.Writer) (*cliOptions, error) {
	fs := flag.NewFlagSet("portrait", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &cliOptions{fields: make(map[domain.Field]string)}
	fs.StringVar(&opts.email, "email", os.Getenv("PORTRAIT_EMAIL"), "account email (default $PORTRAIT_EMAIL)")
	fs.StringVar(&opts.password, "password", os.Getenv("PORTRAIT_PASSWORD"), "account password (default $PORTRAIT_PASSWORD)")
	fs.StringVar(&opts.locale, "locale", "", "notification language, en or ja")
	fs.BoolVar(&opts.list, "list", false, "print the options for every field and exit")
	fs.BoolVar(&opts.noDownload, "no-download", false, "generate only, do not save the image")

	values := make(map[domain.Field]*string, len(domain.Fields))
	for _, f := range domain.Fields {
		values[f] = fs.String(string(f), "", fmt.Sprintf("%s (default %q)", f, domain.DefaultSelection().Value(f)))
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	fs.Visit(func(fl *flag.Flag) {
		if f, err := domain.ParseField(fl.Name); err == nil {
			opts.fields[f] = *values[f]
		}
	})
	if !opts.list && (strings.TrimSpace(opts.email) == "" || opts.password == "") {
		return nil, errors.New("email and password are required")
	}
	return opts, nil
}

func printOptions(w io.Writer) {
	defaults := domain.DefaultSelection()
	for _, f := range domain.Fields {
		fmt.Fprintf(w, "%s:\n", f)
		for _, o := range domain.Options(f) {
			marker := " "
			if o.Value == defaults.Value(f) {
				marker = "*"
			}
			fmt.Fprintf(w, "  %s %-40s %s\n", marker, o.Value, o.Label)
		}
	}
}

// consoleNotifier prints toasts the way a terminal user would see them.
type consoleNotifier struct {
	out     io.Writer
	catalog *notify.Catalog
	locale  string
}

func (n consoleNotifier) Notify(_ context.Context, t notify.Toast) {
	prefix := "ok"
	if t.Level == notify.LevelError {
		prefix = "error"
	}
	fmt.Fprintf(n.out, "[%s] %s\n", prefix, n.catalog.Message(n.locale, t.Key))
}

func main() {
	_ = godotenv.Load()

	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if opts.list {
		printOptions(os.Stdout)
		return
	}

	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := infra.NewLogger("cli")
	flush := infra.InitSentry(cfg, logger)
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts, logger); err != nil {
		logger.Error().Err(err).Msg("portrait run failed")
		flush()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *infra.Config, opts *cliOptions, logger infra.Logger) error {
	generator, err := imageprovider.New(ctx, cfg, &logger)
	if err != nil {
		return err
	}
	store, err := storage.NewFileStore(cfg.DownloadDir)
	if err != nil {
		return err
	}
	verifier := auth.NewTokenVerifier(cfg.SupabaseJWTSecret)
	provider, err := auth.NewSupabaseProvider(cfg.SupabaseURL, cfg.SupabaseAnonKey, verifier)
	if err != nil {
		return err
	}

	catalog := notify.NewCatalog()
	locale := catalog.Match(opts.locale, os.Getenv("LANG"), cfg.DefaultLocale)
	studioOpts := portrait.Options{
		Generator: generator,
		Fetcher:   portrait.NewHTTPFetcher(nil),
		Saver:     store,
		Notifier:  consoleNotifier{out: os.Stderr, catalog: catalog, locale: locale},
		Logger:    &logger,
	}
	if cfg.SentryDSN != "" {
		studioOpts.Reporter = sentry.CurrentHub()
	}
	studio, err := portrait.New(studioOpts)
	if err != nil {
		return err
	}

	session := auth.NewSession()
	binding := auth.Bind(session, studio)
	defer binding.Close()

	if _, err := auth.NewAuthenticator(session, provider, logger).Login(ctx, auth.Credentials{Email: opts.email, Password: opts.password}); err != nil {
		return err
	}
	for _, f := range domain.Fields {
		if v, ok := opts.fields[f]; ok {
			if err := studio.UpdateField(f, v); err != nil {
				return err
			}
			if !domain.ValidOption(f, v) {
				logger.Warn().Str("field", string(f)).Str("value", v).Msg("value is not one of the listed options")
			}
		}
	}

	fmt.Fprintln(os.Stderr, portrait.BuildPrompt(studio.Selection()))
	switch outcome := studio.Generate(ctx); outcome {
	case domain.OutcomeSucceeded:
	case domain.OutcomeEmpty:
		return domain.ErrEmptyResult
	case domain.OutcomeFailed:
		return domain.ErrGenerationFailed
	default:
		return fmt.Errorf("generation did not run: %s", outcome)
	}

	result := studio.Result()
	if opts.noDownload {
		fmt.Println(result.URL)
		return nil
	}
	dl, err := studio.DownloadResult(ctx)
	if err != nil {
		return err
	}
	fmt.Println(dl.Path)
	return nil
}
