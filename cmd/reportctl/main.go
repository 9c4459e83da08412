// cmd/reportctl/main.go
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/edusupply/backend-go/internal/cache"
	"github.com/edusupply/backend-go/internal/config"
	"github.com/edusupply/backend-go/internal/domain"
	"github.com/edusupply/backend-go/internal/report"
	"github.com/edusupply/backend-go/internal/repository/postgres"
	"github.com/edusupply/backend-go/internal/service"
	"github.com/edusupply/backend-go/internal/storage"
	"github.com/edusupply/backend-go/pkg/logger"
)

const dateFlagLayout = "2006-01-02"

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func newRangeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "from",
			Usage: "Start date (YYYY-MM-DD), inclusive",
		},
		&cli.StringFlag{
			Name:  "to",
			Usage: "End date (YYYY-MM-DD), inclusive",
		},
	}
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	// Keep CLI output to the payload JSON; warnings still surface.
	logger.SetLevel("warn")

	app := &cli.App{
		Name:  "reportctl",
		Usage: "Build supply reports and flow analyses from the command line",
		Commands: []*cli.Command{
			reportCommand(),
			flowCommand(),
			archiveCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func reportCommand() *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Assemble the report payload for one scope",
		Flags: append([]cli.Flag{
			newDBURLFlag(),
			&cli.StringFlag{
				Name:  "scope",
				Usage: "Scope kind: warehouse, council or school",
				Value: "warehouse",
			},
			&cli.StringFlag{
				Name:  "id",
				Usage: "Scope identifier (falls back to configured default)",
			},
		}, newRangeFlags()...),
		Action: func(c *cli.Context) error {
			scope, rng, err := parseScopeAndRange(c)
			if err != nil {
				return err
			}

			db, err := openDB(c.String("db-url"))
			if err != nil {
				return err
			}
			defer db.Close()

			svc := service.NewReportService(
				postgres.NewRecordRepository(db),
				cache.NewNoopReportCache(),
				newAssembler(),
			)

			payload, err := svc.GetReport(c.Context, scope, rng)
			if err != nil {
				return err
			}

			return printJSON(payload)
		},
	}
}

func flowCommand() *cli.Command {
	return &cli.Command{
		Name:  "flow",
		Usage: "Analyze the supply-chain flow graph",
		Flags: append([]cli.Flag{
			newDBURLFlag(),
			&cli.BoolFlag{
				Name:  "snapshot",
				Usage: "Print the raw snapshot instead of the analysis",
			},
		}, newRangeFlags()...),
		Action: func(c *cli.Context) error {
			rng, err := parseRange(c)
			if err != nil {
				return err
			}

			db, err := openDB(c.String("db-url"))
			if err != nil {
				return err
			}
			defer db.Close()

			svc := service.NewFlowService(postgres.NewRecordRepository(db))

			if c.Bool("snapshot") {
				snapshot, err := svc.BuildSnapshot(c.Context, rng)
				if err != nil {
					return err
				}
				return printJSON(snapshot)
			}

			analysis, err := svc.GetFlowAnalysis(c.Context, rng)
			if err != nil {
				return err
			}
			return printJSON(analysis)
		},
	}
}

func archiveCommand() *cli.Command {
	return &cli.Command{
		Name:  "archive",
		Usage: "Assemble a report and upload it to object storage",
		Flags: append([]cli.Flag{
			newDBURLFlag(),
			&cli.StringFlag{
				Name:  "scope",
				Usage: "Scope kind: warehouse, council or school",
				Value: "warehouse",
			},
			&cli.StringFlag{
				Name:  "id",
				Usage: "Scope identifier (falls back to configured default)",
			},
			&cli.StringFlag{
				Name:  "key",
				Usage: "Destination object key (defaults to reports/<scope>-<date>.json)",
			},
		}, newRangeFlags()...),
		Action: func(c *cli.Context) error {
			scope, rng, err := parseScopeAndRange(c)
			if err != nil {
				return err
			}

			db, err := openDB(c.String("db-url"))
			if err != nil {
				return err
			}
			defer db.Close()

			svc := service.NewReportService(
				postgres.NewRecordRepository(db),
				cache.NewNoopReportCache(),
				newAssembler(),
			)

			payload, err := svc.GetReport(c.Context, scope, rng)
			if err != nil {
				return err
			}

			raw, err := json.Marshal(payload)
			if err != nil {
				return fmt.Errorf("encoding report: %w", err)
			}

			store, err := storage.NewMinioClient(config.Load().Storage)
			if err != nil {
				return err
			}

			key := c.String("key")
			if key == "" {
				key = fmt.Sprintf("reports/%s-%s.json", scope.Kind, time.Now().Format(dateFlagLayout))
			}

			if err := store.UploadObject(c.Context, key, raw); err != nil {
				return err
			}

			fmt.Printf("archived report to %s\n", key)
			return nil
		},
	}
}

func openDB(dbURL string) (*postgres.DB, error) {
	db, err := sqlx.Open("pgx", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return postgres.NewDBFromConn(db), nil
}

func newAssembler() *report.Assembler {
	cfg := config.Load()
	return report.NewAssembler(report.Config{
		TopN:                  cfg.Reporting.BreakdownTopN,
		DefaultProcessingDays: cfg.Reporting.DefaultProcessingDays,
		QuantityTolerance:     cfg.Reporting.QuantityTolerance,
		DefaultWarehouseID:    cfg.Reporting.DefaultWarehouseID,
		DefaultCouncilID:      cfg.Reporting.DefaultCouncilID,
		DefaultSchoolID:       cfg.Reporting.DefaultSchoolID,
	}, logger.Log)
}

func parseScopeAndRange(c *cli.Context) (domain.Scope, domain.DateRange, error) {
	kind, ok := domain.ParseScopeKind(c.String("scope"))
	if !ok {
		return domain.Scope{}, domain.DateRange{}, fmt.Errorf("unknown scope kind %q", c.String("scope"))
	}

	scope := domain.Scope{Kind: kind}
	switch kind {
	case domain.ScopeWarehouse:
		scope.WarehouseID = c.String("id")
	case domain.ScopeCouncil:
		scope.CouncilID = c.String("id")
	case domain.ScopeSchool:
		scope.SchoolID = c.String("id")
	}

	rng, err := parseRange(c)
	if err != nil {
		return domain.Scope{}, domain.DateRange{}, err
	}

	return scope, rng, nil
}

func parseRange(c *cli.Context) (domain.DateRange, error) {
	var rng domain.DateRange

	if raw := c.String("from"); raw != "" {
		from, err := time.Parse(dateFlagLayout, raw)
		if err != nil {
			return rng, fmt.Errorf("invalid from date %q: %w", raw, err)
		}
		rng.From = from
	}

	if raw := c.String("to"); raw != "" {
		to, err := time.Parse(dateFlagLayout, raw)
		if err != nil {
			return rng, fmt.Errorf("invalid to date %q: %w", raw, err)
		}
		rng.To = to
	}

	if !rng.From.IsZero() && !rng.To.IsZero() && rng.To.Before(rng.From) {
		return rng, fmt.Errorf("to date precedes from date")
	}

	return rng, nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
