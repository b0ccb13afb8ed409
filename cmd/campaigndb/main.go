package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/DJohnMcD/mcdairmant-campaign-infrastructure/internal/config"
	"github.com/DJohnMcD/mcdairmant-campaign-infrastructure/internal/database"
	"github.com/DJohnMcD/mcdairmant-campaign-infrastructure/internal/service"
)

const usage = `usage: campaigndb <command> [args]

commands:
  init                                bring the schema up and report backend state
  import <csv-file> <account-name>    import a bank statement
  reconcile                           run an auto-match sweep
  classify <vendor> <description>     classify an expense without persisting it
  limit <donor-name> <amount>         check a contribution against the limit
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	_ = godotenv.Load()

	logger := logrus.New()
	log := logger.WithField("component", "cli")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("config")
	}

	// classify is pure; no backend needed.
	if os.Args[1] == "classify" {
		runClassify(os.Args[2:])
		return
	}

	backend := database.Select(database.Options{
		Descriptor: cfg.Database.URL,
		Production: cfg.Production(),
		Logger:     logger,
	})
	gw := database.New(backend, logger)
	defer gw.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := gw.Ready(ctx); err != nil {
		log.WithError(err).Fatal("schema bring-up")
	}
	if cfg.Database.MigrationsPath != "" {
		if err := database.RunMigrations(backend, cfg.Database.MigrationsPath); err != nil {
			log.WithError(err).Fatal("migrations")
		}
	}

	audit := service.NewAuditor(gw, logger)
	actor := service.Actor{IP: "127.0.0.1", UserAgent: "campaigndb-cli"}

	// Single-operator tool: everything belongs to one local user.
	userID, err := ensureOperator(ctx, gw)
	if err != nil {
		log.WithError(err).Fatal("operator account")
	}

	switch os.Args[1] {
	case "init":
		fmt.Printf("backend: %s\n", gw.Kind())
		if gw.Degraded() {
			fmt.Println("WARNING: running in degraded mock mode; no data is persisted")
		}

	case "import":
		if len(os.Args) != 4 {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		raw, err := os.ReadFile(os.Args[2])
		if err != nil {
			log.WithError(err).Fatal("read statement")
		}
		importer := service.NewStatementImporter(gw, audit, logger)
		res, err := importer.Import(ctx, userID, os.Args[3], string(raw), actor)
		if err != nil {
			log.WithError(err).Fatal("import")
		}
		fmt.Printf("parsed %d rows, inserted %d\n", res.Parsed, res.Inserted)
		for _, e := range res.Errors {
			fmt.Fprintln(os.Stderr, e)
		}

	case "reconcile":
		reconciler := service.NewReconciler(gw, audit, logger)
		res, err := reconciler.AutoMatch(ctx, userID, actor)
		if err != nil {
			log.WithError(err).Fatal("reconcile")
		}
		fmt.Printf("sweep %s: %d transactions x %d expenses, %d matches, %d persisted\n",
			res.SweepID, res.Transactions, res.Expenses, res.Matched, res.Created)

	case "limit":
		if len(os.Args) != 4 {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		amount, err := strconv.ParseFloat(os.Args[3], 64)
		if err != nil {
			log.WithError(err).Fatal("parse amount")
		}
		compliance := &service.Compliance{Gateway: gw}
		status, err := compliance.ContributionLimit(ctx, userID, os.Args[2], amount)
		if err != nil {
			log.WithError(err).Fatal("limit check")
		}
		fmt.Printf("existing %s, new total %s of %s, within limit: %v, remaining %s\n",
			status.ExistingTotal, status.NewTotal, status.Limit, status.WithinLimit, status.Remaining)
		if status.Warning != "" {
			fmt.Println(status.Warning)
		}

	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

// ensureOperator returns the id of the local operator account, creating it on
// a fresh database so user-owned rows always have a parent.
func ensureOperator(ctx context.Context, gw *database.Gateway) (int64, error) {
	row, err := gw.Get(ctx, "SELECT id FROM users WHERE username = ?", "operator")
	if err != nil {
		return 0, err
	}
	if row != nil {
		return row.Int64("id"), nil
	}
	res, err := gw.Run(ctx,
		"INSERT INTO users (username, password, email) VALUES (?, ?, ?)",
		"operator", "!locked", "operator@localhost")
	if err != nil {
		return 0, err
	}
	return res.InsertID, nil
}

func runClassify(args []string) {
	if len(args) != 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	c := service.Classify(args[0], args[1])
	fmt.Printf("%s (%.2f): %s [%s/%s]\n",
		c.Classification, c.Confidence, c.Reason, c.Category, strings.TrimSpace(c.Subcategory))
}
