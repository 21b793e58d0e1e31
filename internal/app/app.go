package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/niksmo/prime-house/config"
	"github.com/niksmo/prime-house/internal/adapter"
	"github.com/niksmo/prime-house/internal/adapter/credentials"
	"github.com/niksmo/prime-house/internal/adapter/httphandler"
	"github.com/niksmo/prime-house/internal/adapter/kafka"
	"github.com/niksmo/prime-house/internal/adapter/storage"
	"github.com/niksmo/prime-house/internal/adapter/token"
	"github.com/niksmo/prime-house/internal/core/port"
	"github.com/niksmo/prime-house/internal/core/service"
	"github.com/niksmo/prime-house/pkg/schema"
	"github.com/twmb/franz-go/pkg/sr"
)

const livePattern = "GET /v1/properties/live"

type serdes struct {
	command  schema.Serde
	property schema.Serde
}

type outbound struct {
	commands   kafka.PropertyCommandsProducer
	processor  *kafka.PropertiesProcessor
	subscriber kafka.PropertiesSubscriber
	sqldb      *storage.SQLDB
	leads      port.LeadsStorage
}

type coreService struct {
	catalog *service.Catalog
	admin   service.Admin
	auth    service.Auth
	leads   service.Leads
	service service.Service
}

type App struct {
	ctx        context.Context
	cfg        config.Config
	serdes     serdes
	outbound   outbound
	service    coreService
	httpServer httphandler.HTTPServer
}

func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg}

	app.initLogger()
	app.initSerdes()
	app.initOutboundAdapters()
	app.initCoreService()
	app.initInboundAdapters()

	return app
}

func (app *App) initLogger() {
	var handler slog.Handler
	switch app.cfg.LogFormat {
	case "pretty":
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      app.cfg.LogLevel,
			TimeFormat: time.DateTime,
		})
	default:
		opts := &slog.HandlerOptions{Level: app.cfg.LogLevel}
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func (app *App) initSerdes() {
	const op = "App.initSerdes"
	urls := app.cfg.Broker.SchemaRegistryURLs
	ctx := app.ctx

	srClient, err := sr.NewClient(sr.URLs(urls...))
	if err != nil {
		app.fallDown(op, err)
	}

	schemaCreater := schema.NewSchemaCreater(srClient)

	commandsSubject := app.cfg.Broker.Topics.PropertyCommands + "-value"
	commandSerde, err := schema.NewSerdePropertyCommandV1(
		ctx,
		schema.SubjectOpt(commandsSubject),
		schema.SchemaIdentifierOpt(schemaCreater),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	tableSubject := kafka.TableTopic(app.cfg.Broker.Groups.Properties) + "-value"
	propertySerde, err := schema.NewSerdePropertyV1(
		ctx,
		schema.SubjectOpt(tableSubject),
		schema.SchemaIdentifierOpt(schemaCreater),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	app.serdes.command = commandSerde
	app.serdes.property = propertySerde
}

func (app *App) initOutboundAdapters() {
	const op = "App.initOutboundAdapters"

	ctx := app.ctx
	brokerCfg := app.cfg.Broker
	seedBrokers := brokerCfg.SeedBrokers
	commandsTopic := brokerCfg.Topics.PropertyCommands
	group := brokerCfg.Groups.Properties

	sec := kafka.Security{User: brokerCfg.SASL.User, Pass: brokerCfg.SASL.Pass}
	if brokerCfg.TLS.Enabled() {
		tlsConfig, err := adapter.MakeTLSConfig(
			brokerCfg.TLS.CA, brokerCfg.TLS.Cert, brokerCfg.TLS.Key,
		)
		if err != nil {
			app.fallDown(op, err)
		}
		sec.TLS = tlsConfig
	}

	commandsProducer, err := kafka.NewPropertyCommandsProducer(
		kafka.ProducerClientOpt(ctx, seedBrokers, commandsTopic, sec),
		kafka.ProducerEncoderOpt(app.serdes.command),
		kafka.ProducerDocumentEncoderOpt(app.serdes.property),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.outbound.commands = commandsProducer

	propertiesProc, err := kafka.NewPropertiesProc(kafka.ProcessorConfig{
		SeedBrokers:   seedBrokers,
		CommandsTopic: commandsTopic,
		Group:         group,
		CommandSerde:  app.serdes.command,
		PropertySerde: app.serdes.property,
		Security:      sec,
	})
	if err != nil {
		app.fallDown(op, err)
	}
	app.outbound.processor = propertiesProc

	subscriber, err := kafka.NewPropertiesSubscriber(
		kafka.ConsumerClientOpt(seedBrokers, kafka.TableTopic(group), sec),
		kafka.ConsumerDecoderOpt(app.serdes.property),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.outbound.subscriber = subscriber

	app.initLeadsStorage()
}

// initLeadsStorage falls back to memory when no database is configured.
func (app *App) initLeadsStorage() {
	const op = "App.initLeadsStorage"

	if app.cfg.SQLDB == "" {
		slog.Warn("sql_db is not set, leads are kept in memory", "op", op)
		app.outbound.leads = storage.NewMemoryLeads()
		return
	}

	sqldb, err := storage.NewSQLDB(app.ctx, app.cfg.SQLDB)
	if err != nil {
		app.fallDown(op, err)
	}
	app.outbound.sqldb = &sqldb
	app.outbound.leads = storage.NewLeadsRepository(sqldb)
}

func (app *App) initCoreService() {
	const op = "App.initCoreService"

	catalog := service.NewCatalog(app.outbound.subscriber)

	admin := service.NewAdmin(
		catalog,
		app.outbound.commands,
		app.outbound.commands,
		app.cfg.MaxDocumentBytes,
	)

	users := make([]credentials.User, 0, len(app.cfg.Auth.Users))
	for _, u := range app.cfg.Auth.Users {
		users = append(users, credentials.User{
			Email:        u.Email,
			PasswordHash: u.PasswordHash,
		})
	}
	passwords, err := credentials.NewUsers(users)
	if err != nil {
		app.fallDown(op, err)
	}

	tokens, err := token.NewJWT(app.cfg.Auth.JWTSecret)
	if err != nil {
		app.fallDown(op, err)
	}

	app.service = coreService{
		catalog: catalog,
		admin:   admin,
		auth: service.NewAuth(
			passwords, tokens, app.cfg.Auth.AdminHash, app.cfg.Auth.TokenTTL,
		),
		leads:   service.NewLeads(app.outbound.leads),
		service: service.New(app.outbound.processor, catalog),
	}
}

func (app *App) initInboundAdapters() {
	const op = "App.initInboundAdapters"

	s := app.service
	mux := http.NewServeMux()
	httphandler.RegisterProperties(mux, s.catalog)
	httphandler.RegisterAdmin(mux, s.admin, int64(app.cfg.MaxDocumentBytes))
	httphandler.RegisterAuth(mux, s.auth)
	if err := httphandler.RegisterLeads(mux, s.leads, s.leads); err != nil {
		app.fallDown(op, err)
	}

	origins := app.cfg.HTTP.CORSOrigins
	app.httpServer = httphandler.NewHTTPServer(
		app.cfg.HTTP.Addr,
		httphandler.WithIdentity(s.auth)(mux),
		httphandler.StreamOpt(
			livePattern, httphandler.NewLiveHandler(s.catalog, origins),
		),
		httphandler.OwnMediaTypeOpt(httphandler.LeadsPattern),
		httphandler.CORSOpt(origins),
		httphandler.BaseContextOpt(app.ctx),
	)
}

// Run blocks while the properties processor is preparing.
func (app *App) Run(stopFn context.CancelFunc) {
	app.service.service.Run(app.ctx, stopFn)
	go app.httpServer.Run(stopFn)

	slog.Info("application is running")
}

func (app *App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	app.httpServer.Close(ctx)
	app.service.service.Close()
	app.outbound.subscriber.Close()
	app.outbound.commands.Close()
	if app.outbound.sqldb != nil {
		app.outbound.sqldb.Close()
	}

	slog.Info("application is closed")
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}
