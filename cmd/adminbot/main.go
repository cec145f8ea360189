package main

import (
	"database/sql"
	"log"
	"os"
	"time"

	"apexearn/internal/interfaces"
	"apexearn/internal/models"
	"apexearn/internal/pkg/caching"
	"apexearn/internal/pkg/limiter"
	"apexearn/internal/services"

	"github.com/go-redsync/redsync/v4"
	redsyncgoredis "github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/hiendaovinh/toolkit/pkg/db"
	"github.com/hiendaovinh/toolkit/pkg/env"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/urfave/cli/v2"
	tele "gopkg.in/telebot.v3"
)

func init() {
	// for development
	//nolint:errcheck
	godotenv.Load("../../.env")

	// for production
	//nolint:errcheck
	godotenv.Load("./.env")
}

var (
	serviceUser      *services.ServiceUser
	serviceTask      *services.ServiceTask
	serviceCheckin   *services.ServiceCheckin
	serviceWallet    *services.ServiceWallet
	serviceStats     *services.ServiceStats
	serviceBroadcast *services.ServiceBroadcast
	botService       *services.Bot
)

func main() {
	app := &cli.App{
		Name: "bot-telegram-admin",
		Commands: []*cli.Command{
			commandBot(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commandBot() *cli.Command {
	return &cli.Command{
		Name:   "server",
		Action: action,
	}
}

func action(c *cli.Context) error {
	vs, err := env.EnvsRequired(
		"BOT_TOKEN",
		"ADMIN_BOT_TOKEN",
		"ADMIN_IDS",
		"DB_DSN",
	)
	if err != nil {
		return err
	}

	container, err := newContainer(vs)
	if err != nil {
		return err
	}

	serviceUser = do.MustInvoke[*services.ServiceUser](container)
	serviceTask = do.MustInvoke[*services.ServiceTask](container)
	serviceCheckin = do.MustInvoke[*services.ServiceCheckin](container)
	serviceWallet = do.MustInvoke[*services.ServiceWallet](container)
	serviceStats = do.MustInvoke[*services.ServiceStats](container)
	serviceBroadcast = do.MustInvoke[*services.ServiceBroadcast](container)
	botService = do.MustInvoke[*services.Bot](container)

	pref := tele.Settings{
		Token:  vs["ADMIN_BOT_TOKEN"],
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return err
	}

	b.Use(middlewareOperatorOnly)

	b.Handle("/help", commandHelp)
	b.Handle("/newtask", commandNewTask)
	b.Handle("/deltask", commandDelTask)
	b.Handle("/setcode", commandSetCode)
	b.Handle("/ban", commandBan)
	b.Handle("/unban", commandUnban)
	b.Handle("/credit", commandCredit)
	b.Handle("/users", commandUsers)
	b.Handle("/listtasks", commandListTasks)
	b.Handle("/stats", commandStats)
	b.Handle("/pending", commandPending)
	b.Handle("/broadcast", commandBroadcast)

	b.Handle(&tele.Btn{Unique: "wd_approve"}, callbackApprove)
	b.Handle(&tele.Btn{Unique: "wd_decline"}, callbackDecline)

	log.Println("admin bot started")
	b.Start()

	return nil
}

// middlewareOperatorOnly drops updates from anyone outside the operator
// allowlist without a reply, so probing the bot reveals nothing.
func middlewareOperatorOnly(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		sender := c.Sender()
		if sender == nil || !botService.IsAdmin(sender.ID) {
			return nil
		}

		if c.Callback() != nil {
			defer c.Respond()
		}

		return next(c)
	}
}

func newContainer(vs map[string]string) (*do.Injector, error) {
	injector := do.New()

	do.Provide(injector, func(i *do.Injector) (*bun.DB, error) {
		sqldb := sql.OpenDB(pgdriver.NewConnector(
			pgdriver.WithDSN(vs["DB_DSN"]),
			pgdriver.WithPassword(os.Getenv("DB_PASSWORD")),
		))

		return bun.NewDB(sqldb, pgdialect.New()), nil
	})

	dbRedis, err := db.InitRedis(&db.RedisConfig{
		URL: os.Getenv("REDIS_URL"),
	})
	if err != nil {
		return nil, err
	}
	do.ProvideNamedValue[redis.UniversalClient](injector, "redis-db", dbRedis)

	do.Provide(injector, func(i *do.Injector) (caching.Cache, error) {
		return caching.NewCacheRedis(dbRedis, true)
	})

	do.Provide(injector, func(i *do.Injector) (interfaces.Limiter, error) {
		return limiter.NewLimiter(dbRedis)
	})

	do.Provide(injector, func(i *do.Injector) (*redsync.Redsync, error) {
		return redsync.New(redsyncgoredis.NewPool(dbRedis)), nil
	})

	do.Provide(injector, func(i *do.Injector) (*services.Bot, error) {
		return services.NewBot(
			vs["BOT_TOKEN"],
			vs["ADMIN_BOT_TOKEN"],
			services.ParseAdminChatIDs(vs["ADMIN_IDS"]),
			os.Getenv("FORCE_JOIN_CHANNEL"),
		)
	})

	do.Provide(injector, func(i *do.Injector) (interfaces.Shortener, error) {
		return services.NewServiceShortener(shortenerProviders())
	})

	do.Provide(injector, services.NewServiceConfig)
	do.Provide(injector, services.NewServiceUser)
	do.Provide(injector, services.NewServiceTask)
	do.Provide(injector, services.NewServiceCheckin)
	do.Provide(injector, services.NewServiceWallet)
	do.Provide(injector, services.NewServiceStats)
	do.Provide(injector, services.NewServiceBroadcast)

	return injector, nil
}

func shortenerProviders() map[models.Provider]services.ShortenerProvider {
	return map[models.Provider]services.ShortenerProvider{
		models.ProviderGPLinks: {
			APIURL: os.Getenv("GPLINKS_API_URL"),
			APIKey: os.Getenv("GPLINKS_API_KEY"),
		},
		models.ProviderShrinkMe: {
			APIURL: os.Getenv("SHRINKME_API_URL"),
			APIKey: os.Getenv("SHRINKME_API_KEY"),
		},
		models.ProviderShrinkEarn: {
			APIURL: os.Getenv("SHRINKEARN_API_URL"),
			APIKey: os.Getenv("SHRINKEARN_API_KEY"),
		},
	}
}
