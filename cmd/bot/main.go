package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"feedback_survey_bot/internal/app"
	"feedback_survey_bot/internal/domain/employee"
	"feedback_survey_bot/internal/domain/organization"
	"feedback_survey_bot/internal/domain/survey"
	"feedback_survey_bot/internal/infra/completion"
	"feedback_survey_bot/internal/infra/config"
	idb "feedback_survey_bot/internal/infra/database"
	"feedback_survey_bot/internal/infra/logger"
	"feedback_survey_bot/internal/infra/memory"
	"feedback_survey_bot/internal/infra/scheduler"
	"feedback_survey_bot/internal/infra/telegram"

	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"gopkg.in/telebot.v3"
)

type cli struct {
	EnvFile string `help:"Optional .env file to load before reading the environment" type:"path" default:".env"`

	Serve     ServeCmd     `cmd:"" default:"1" help:"Run the bot and the organization scheduler"`
	Broadcast BroadcastCmd `cmd:"" help:"Send the first survey question to every employee of an organization once"`
	Analyze   AnalyzeCmd   `cmd:"" help:"Build and deliver the feedback report of an organization once"`
}

func main() {
	var c cli
	ctx := kong.Parse(&c,
		kong.UsageOnError(),
		kong.Name("feedback-bot"),
		kong.Description("Telegram bot that collects employee feedback and reports pros and cons"),
	)
	err := ctx.Run(&c)
	ctx.FatalIfErrorf(err)
}

type repositories struct {
	orgs      organization.Repository
	employees employee.Repository
	surveys   survey.Repository
}

type application struct {
	cfg          *config.AppConfig
	surveyCfg    *config.SurveyConfig
	repos        repositories
	bot          *telebot.Bot
	org          *organization.Organization
	conversation *app.ConversationService
	broadcaster  *app.BroadcastService
	analyzer     *app.AnalysisService
	admin        *app.AdminService
	closeStorage func()
	mainLogger   *logrus.Entry
}

// bootstrap loads configuration, opens storage, syncs the configured
// organization and wires every service. poll decides whether the bot
// receives updates or is only used to send.
func bootstrap(ctx context.Context, envFile string, poll bool) (*application, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("could not load application configuration: %w", err)
	}
	logger.Init(cfg)
	mainLogger := logger.Component("main")
	mainLogger.WithFields(logrus.Fields{
		"environment":    cfg.Environment,
		"storage_driver": cfg.StorageDriver,
		"admin_id":       cfg.AdminTelegramID,
	}).Info("Configuration loaded")

	surveyCfg, err := config.LoadSurvey(cfg.SurveyConfigPath)
	if err != nil {
		return nil, fmt.Errorf("could not load survey configuration: %w", err)
	}
	questionnaire, err := surveyCfg.Questionnaire()
	if err != nil {
		return nil, fmt.Errorf("invalid survey questions: %w", err)
	}

	a := &application{cfg: cfg, surveyCfg: surveyCfg, mainLogger: mainLogger, closeStorage: func() {}}
	if err := a.openStorage(ctx); err != nil {
		return nil, err
	}

	orgModel, err := surveyCfg.OrganizationModel()
	if err != nil {
		a.closeStorage()
		return nil, fmt.Errorf("invalid organization configuration: %w", err)
	}
	orgService := app.NewOrganizationService(a.repos.orgs, logger.Component("organization"))
	a.org, err = orgService.Sync(ctx, orgModel)
	if err != nil {
		a.closeStorage()
		return nil, err
	}

	pref := telebot.Settings{
		Token: cfg.TelegramToken,
		OnError: func(err error, c telebot.Context) { // Global error handler
			entry := logger.Component("telebot").WithError(err)
			if c != nil && c.Sender() != nil && c.Chat() != nil {
				entry = entry.WithFields(logrus.Fields{"sender_id": c.Sender().ID, "chat_id": c.Chat().ID})
			}
			entry.Error("Unhandled bot error")
		},
	}
	if poll {
		pref.Poller = &telebot.LongPoller{Timeout: 10 * time.Second}
	}
	a.bot, err = telebot.NewBot(pref)
	if err != nil {
		a.closeStorage()
		return nil, fmt.Errorf("could not create Telegram bot: %w", err)
	}
	telegramClient := telegram.NewTelebotAdapter(a.bot)

	completionClient := completion.NewOpenAIClient(completion.Config{
		APIKey:     cfg.OpenAIAPIKey,
		BaseURL:    cfg.OpenAIBaseURL,
		Model:      cfg.OpenAIModel,
		Timeout:    cfg.CompletionTimeout,
		MaxRetries: cfg.CompletionMaxRetries,
	}, logger.Component("completion"))

	classifier := app.NewResponseClassifier(completionClient, a.repos.surveys, app.ClassifierSettings{
		SystemPrompt: surveyCfg.Classifier.SystemPrompt,
		Markers:      surveyCfg.Markers(),
		MaxTokens:    surveyCfg.Classifier.MaxTokens,
		Temperature:  *surveyCfg.Classifier.Temperature,
	}, logger.Component("classifier"))

	n := surveyCfg.Notices
	a.conversation = app.NewConversationService(a.repos.employees, a.repos.orgs, a.repos.surveys, questionnaire, classifier, telegramClient, app.Notices{
		NotRegistered:      n.NotRegistered,
		AlreadyRegistered:  n.AlreadyRegistered,
		Registered:         n.Registered,
		NoQuestionsPending: n.NoQuestionsPending,
		ProcessingFailed:   n.ProcessingFailed,
	}, logger.Component("conversation"))

	limiter := rate.NewLimiter(rate.Limit(cfg.BroadcastRatePerSecond), 1)
	a.broadcaster = app.NewBroadcastService(a.repos.orgs, a.repos.employees, a.repos.surveys, questionnaire, telegramClient, limiter, logger.Component("broadcast"))
	a.analyzer = app.NewAnalysisService(a.repos.orgs, a.repos.surveys, telegramClient, cfg.ManagerTelegramID, logger.Component("analysis"))
	a.admin = app.NewAdminService(a.repos.orgs, a.repos.employees, a.broadcaster, a.analyzer, cfg.AdminTelegramID)

	mainLogger.Info("Application services initialized")
	return a, nil
}

func (a *application) openStorage(ctx context.Context) error {
	switch a.cfg.StorageDriver {
	case config.StorageDriverMemory:
		store := memory.New()
		a.repos = repositories{orgs: store.Organizations(), employees: store.Employees(), surveys: store.Surveys()}
		a.mainLogger.Warn("Using in-memory storage, data will be lost on restart")
		return nil
	default:
		db, err := idb.NewPostgresConnection(a.cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("could not connect to database: %w", err)
		}
		if err := idb.Migrate(ctx, db); err != nil {
			db.Close()
			return fmt.Errorf("could not migrate database schema: %w", err)
		}
		a.repos = repositories{
			orgs:      idb.NewPostgresOrganizationRepository(db),
			employees: idb.NewPostgresEmployeeRepository(db),
			surveys:   idb.NewPostgresSurveyRepository(db),
		}
		a.closeStorage = closeDB(db)
		a.mainLogger.Info("Database connection established successfully.")
		return nil
	}
}

func closeDB(db *sql.DB) func() {
	return func() {
		if err := db.Close(); err != nil {
			logger.Log.WithError(err).Warn("Failed to close database connection")
		}
	}
}

// resolveOrganization maps an --org flag to an ID; zero selects the configured organization.
func (a *application) resolveOrganization(id int64) int64 {
	if id == 0 {
		return a.org.ID
	}
	return id
}

type ServeCmd struct{}

func (cmd *ServeCmd) Run(c *cli) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := bootstrap(ctx, c.EnvFile, true)
	if err != nil {
		return err
	}
	defer a.closeStorage()

	orgScheduler := scheduler.NewOrganizationScheduler(
		a.repos.orgs,
		a.broadcaster,
		a.analyzer,
		a.cfg.AnalysisLookback(),
		a.cfg.Location(),
		logger.Component("scheduler"),
	)
	if err := orgScheduler.Start(ctx); err != nil {
		return fmt.Errorf("could not start scheduler: %w", err)
	}

	baseLogger := logger.Component("telegram")
	telegram.RegisterSurveyHandlers(ctx, a.bot, a.conversation, a.surveyCfg.Notices, a.cfg.AdminTelegramID, baseLogger)
	telegram.RegisterAdminHandlers(ctx, a.bot, a.admin, a.cfg.AdminTelegramID, a.cfg.AnalysisLookback(), baseLogger)
	a.mainLogger.Info("Bot handlers registered.")

	// Start bot in a goroutine so it doesn't block graceful shutdown handling
	go a.bot.Start()
	a.mainLogger.Info("Application setup complete. Bot and Scheduler are running.")

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	for sig := range signals {
		if sig == syscall.SIGHUP {
			if err := a.reloadOrganization(ctx); err != nil {
				a.mainLogger.WithError(err).Error("Failed to reload survey configuration")
				continue
			}
			if err := orgScheduler.Reload(ctx); err != nil {
				a.mainLogger.WithError(err).Error("Failed to reload schedules")
			}
			continue
		}
		a.mainLogger.WithField("signal", sig.String()).Info("Shutting down application...")
		break
	}

	a.bot.Stop()
	orgScheduler.Stop()
	cancel()
	a.mainLogger.Info("Application shut down gracefully.")
	return nil
}

// reloadOrganization re-reads the survey file and stores changed schedules.
// Questions and notices keep their startup values until restart.
func (a *application) reloadOrganization(ctx context.Context) error {
	surveyCfg, err := config.LoadSurvey(a.cfg.SurveyConfigPath)
	if err != nil {
		return err
	}
	orgModel, err := surveyCfg.OrganizationModel()
	if err != nil {
		return err
	}
	orgModel.ID = a.org.ID
	org, err := app.NewOrganizationService(a.repos.orgs, logger.Component("organization")).Sync(ctx, orgModel)
	if err != nil {
		return err
	}
	a.org = org
	return nil
}

type BroadcastCmd struct {
	Org int64 `help:"Organization ID; defaults to the configured organization"`
}

func (cmd *BroadcastCmd) Run(c *cli) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx, c.EnvFile, false)
	if err != nil {
		return err
	}
	defer a.closeStorage()

	summary, err := a.broadcaster.BroadcastSurvey(ctx, a.resolveOrganization(cmd.Org))
	if err != nil {
		return err
	}
	fmt.Printf("Survey sent to %d of %d employees (%d failed)\n", summary.Sent, summary.Employees, summary.Failed)
	return nil
}

type AnalyzeCmd struct {
	Org  int64 `help:"Organization ID; defaults to the configured organization"`
	Days int   `help:"Lookback window in days; defaults to ANALYSIS_LOOKBACK_DAYS"`
}

func (cmd *AnalyzeCmd) Run(c *cli) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx, c.EnvFile, false)
	if err != nil {
		return err
	}
	defer a.closeStorage()

	lookback := a.cfg.AnalysisLookback()
	if cmd.Days > 0 {
		lookback = time.Duration(cmd.Days) * 24 * time.Hour
	}
	report, err := a.analyzer.Analyze(ctx, a.resolveOrganization(cmd.Org), lookback)
	if err != nil {
		return err
	}
	fmt.Print(report.Text())
	return nil
}
