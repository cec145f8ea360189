package main

import (
	"database/sql"
	"log"
	"os"
	"time"

	"apexearn/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/env"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/samber/do"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/urfave/cli/v2"
)

func init() {
	// for development
	//nolint:errcheck
	godotenv.Load("../../.env")

	// for production
	//nolint:errcheck
	godotenv.Load("./.env")
}

func main() {
	app := &cli.App{
		Name: "cronjob",
		Commands: []*cli.Command{
			commandCronjob(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commandCronjob() *cli.Command {
	return &cli.Command{
		Name: "cron",
		Action: func(c *cli.Context) error {
			vs, err := env.EnvsRequired(
				"BOT_TOKEN",
				"ADMIN_IDS",
				"DB_DSN",
			)
			if err != nil {
				return err
			}

			container := do.New()

			do.Provide(container, func(i *do.Injector) (*bun.DB, error) {
				return getDb()
			})

			do.Provide(container, func(i *do.Injector) (*services.Bot, error) {
				return services.NewBot(
					vs["BOT_TOKEN"],
					os.Getenv("ADMIN_BOT_TOKEN"),
					services.ParseAdminChatIDs(vs["ADMIN_IDS"]),
					os.Getenv("FORCE_JOIN_CHANNEL"),
				)
			})

			do.Provide(container, services.NewServiceStats)

			serviceStats := do.MustInvoke[*services.ServiceStats](container)
			bot := do.MustInvoke[*services.Bot](container)

			// all daily state (quota, check-in) rolls over at UTC midnight
			cronRunner := cron.New(cron.WithLocation(time.UTC))

			reportJob := NewReportJob(serviceStats, bot)
			if err := reportJob.Start(cronRunner); err != nil {
				return err
			}

			log.Println("Start cronjob")
			cronRunner.Run()
			return nil
		},
	}
}

func getDb() (*bun.DB, error) {
	godotenv.Load()
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(os.Getenv("DB_DSN")),
		pgdriver.WithPassword(os.Getenv("DB_PASSWORD")),
	))

	db := bun.NewDB(sqldb, pgdialect.New())
	return db, nil
}
