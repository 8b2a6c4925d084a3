package bootstrap

import (
	"context"
	"time"

	"subscription-cancel-be/internal/config"
	"subscription-cancel-be/internal/controller"
	"subscription-cancel-be/internal/handler"
	"subscription-cancel-be/internal/pkg/logger"
	"subscription-cancel-be/internal/pkg/mailer"
	"subscription-cancel-be/internal/pkg/metrics"
	"subscription-cancel-be/internal/repository/contract"
	"subscription-cancel-be/internal/repository/memory"
	"subscription-cancel-be/internal/repository/redisstore"
	"subscription-cancel-be/internal/repository/unitofwork"
	"subscription-cancel-be/internal/service"
	"subscription-cancel-be/internal/websocket"
	"subscription-cancel-be/pkg/events"
	"subscription-cancel-be/pkg/experiment"

	pktNats "subscription-cancel-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	CSRFController         controller.ICSRFController
	UserController         controller.IUserController
	SubscriptionController controller.ISubscriptionController
	CancellationController controller.ICancellationController
	WizardController       controller.IWizardController

	// WebSockets
	EventsHandler *handler.EventsHandler
	WebSocketHub  *websocket.Hub

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger             logger.ILogger
	Metrics            *metrics.Metrics
	PersistenceEnabled bool

	pubSub  *gochannel.GoChannel
	natsPub *pktNats.Publisher
	rdb     *redis.Client
	stopHub context.CancelFunc
}

// NewContainer wires every dependency. A nil db starts the service without
// persistence; the CRUD routes then answer with a configuration error, and
// the wizard still runs but its terminal write fails.
func NewContainer(db *gorm.DB, cfg *config.Config, sysLogger logger.ILogger) *Container {
	c := &Container{
		Logger:             sysLogger,
		Metrics:            metrics.New(),
		PersistenceEnabled: db != nil,
	}

	// 1. Core Facades
	var uowFactory unitofwork.RepositoryFactory
	if db != nil {
		uowFactory = unitofwork.NewRepositoryFactory(db)
	} else {
		sysLogger.Warn(logger.ModuleCancellation, "DB_CONNECTION_STRING not set, persistence disabled", nil)
	}

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
		sysLogger,
	)

	// 2. Event Bus
	c.pubSub = gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewStdLogger(false, false),
	)

	// 3. Wizard session storage (opens the redis client when configured)
	sessions := c.sessionStore(cfg, sysLogger)

	// 4. Relays: live websocket delivery, plus NATS when configured
	c.WebSocketHub = websocket.NewHub(c.rdb, sysLogger)
	hubCtx, stopHub := context.WithCancel(context.Background())
	c.stopHub = stopHub
	go c.WebSocketHub.Run(hubCtx)

	relays := []events.Publisher{c.WebSocketHub}
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			sysLogger.Warn(logger.ModuleEvents, "Failed to connect to NATS, events stay in process", map[string]interface{}{"error": err.Error()})
		} else {
			c.natsPub = natsPub
			relays = append(relays, natsPub)
		}
	}
	relay := events.Fanout(relays...)

	// 5. Services
	publisherService := service.NewPublisherService(service.EventTopic, c.pubSub)
	c.ConsumerService = service.NewConsumerService(c.pubSub, service.EventTopic, emailService, relay, sysLogger)

	userService := service.NewUserService(uowFactory, c.Metrics)
	subscriptionService := service.NewSubscriptionService(uowFactory, publisherService, c.Metrics, sysLogger)
	cancellationService := service.NewCancellationService(uowFactory, publisherService, c.Metrics, sysLogger)
	wizardService := service.NewWizardService(
		sessions,
		experiment.NewAssigner(cfg.Experiment.Salt),
		cancellationService,
		publisherService,
		c.Metrics,
		sysLogger,
	)

	// 6. Controllers & Handlers
	c.CSRFController = controller.NewCSRFController(cfg.IsProduction())
	c.UserController = controller.NewUserController(userService)
	c.SubscriptionController = controller.NewSubscriptionController(subscriptionService)
	c.CancellationController = controller.NewCancellationController(cancellationService)
	c.WizardController = controller.NewWizardController(wizardService)
	c.EventsHandler = handler.NewEventsHandler(c.WebSocketHub, sysLogger)

	return c
}

// sessionStore picks redis when configured and reachable, memory otherwise.
func (c *Container) sessionStore(cfg *config.Config, log logger.ILogger) contract.WizardSessionRepository {
	if cfg.Wizard.SessionStore != "redis" {
		return memory.NewSessionRepository(cfg.Wizard.SessionTTL)
	}

	rdb := redisstore.NewClient(cfg.App.RedisURL)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn(logger.ModuleWizard, "Redis unreachable, wizard sessions kept in memory", map[string]interface{}{"error": err.Error()})
		_ = rdb.Close()
		return memory.NewSessionRepository(cfg.Wizard.SessionTTL)
	}

	c.rdb = rdb
	return redisstore.NewSessionRepository(rdb, cfg.Wizard.SessionTTL)
}

// Close releases connections opened by NewContainer.
func (c *Container) Close() {
	if c.stopHub != nil {
		c.stopHub()
	}
	if c.pubSub != nil {
		_ = c.pubSub.Close()
	}
	c.natsPub.Close()
	if c.rdb != nil {
		_ = c.rdb.Close()
	}
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
}
