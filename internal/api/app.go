package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"

	"github.com/tracknet-io/tracknet/internal/auth"
	"github.com/tracknet-io/tracknet/internal/core"
	"github.com/tracknet-io/tracknet/internal/realtime"
	"github.com/tracknet-io/tracknet/internal/sse"
	"github.com/tracknet-io/tracknet/internal/store"
)

type App struct {
	config    *core.Config
	logger    zerolog.Logger
	store     *store.Store
	server    *sse.Server
	gateway   *realtime.Gateway
	notifier  realtime.Notifier
	tokens    *auth.TokenIssuer
	authority *auth.Authority
	validate  *validator.Validate
}

func New(config *core.Config, logger zerolog.Logger) (*App, error) {
	st, err := store.Open(config.Database.Path)
	if err != nil {
		return nil, err
	}

	server := sse.New(logger)
	gateway := realtime.NewGateway(logger)
	gateway.Bind(server)

	app := &App{
		config:    config,
		logger:    logger,
		store:     st,
		server:    server,
		gateway:   gateway,
		notifier:  gateway,
		tokens:    auth.NewTokenIssuer(config.Auth.Secret, config.TokenTTL()),
		authority: auth.NewAuthority(st, gateway, logger),
		validate:  validator.New(),
	}

	return app, nil
}

func (app *App) Listen() error {
	app.logger.Info().Str("addr", app.config.Addr).Msg("listening")

	return http.ListenAndServe(app.config.Addr, app.Router())
}

func (app *App) Close() {
	app.store.Close()
}

func (app *App) Router() http.Handler {
	router := httprouter.New()

	router.GET("/api/events", app.server.HandleFunc())
	router.PUT("/api/events/subscribe/:topic", app.subscribeTopic())
	router.PUT("/api/events/unsubscribe/:topic", app.unsubscribeTopic())

	router.POST("/api/auth/login", app.login())
	router.POST("/api/auth/logout", app.protect(app.logout()))
	router.POST("/api/auth/register", app.register())

	router.GET("/api/users", app.protect(app.listUsers(), store.RoleAdmin))
	router.GET("/api/users/clients", app.protect(app.listClients(), store.RoleAdmin, store.RoleStaff))
	router.PUT("/api/users/:id/role", app.protect(app.updateUserRole(), store.RoleAdmin))
	router.DELETE("/api/users/:id", app.protect(app.deleteUser(), store.RoleAdmin))

	router.GET("/api/branches", app.protect(app.listBranches(), store.RoleAdmin, store.RoleStaff))
	router.POST("/api/branches", app.protect(app.createBranch(), store.RoleAdmin))
	router.PUT("/api/branches/:id", app.protect(app.updateBranch(), store.RoleAdmin))
	router.DELETE("/api/branches/:id", app.protect(app.deleteBranch(), store.RoleAdmin))

	router.GET("/api/rates", app.protect(app.listRates(), store.RoleAdmin, store.RoleStaff))
	router.POST("/api/rates", app.protect(app.createRate(), store.RoleAdmin))
	router.PUT("/api/rates/:id", app.protect(app.updateRate(), store.RoleAdmin))
	router.DELETE("/api/rates/:id", app.protect(app.deleteRate(), store.RoleAdmin))

	router.GET("/api/shipments", app.protect(app.listShipments(), store.RoleAdmin, store.RoleStaff))
	router.POST("/api/shipments", app.protect(app.createShipment(), store.RoleAdmin, store.RoleStaff))
	router.GET("/api/shipments/stats", app.protect(app.shipmentStats(), store.RoleAdmin, store.RoleStaff))
	router.GET("/api/shipments/my-stats", app.protect(app.myStats()))
	router.GET("/api/shipments/recent-activity", app.protect(app.recentActivity(), store.RoleAdmin, store.RoleStaff))
	router.GET("/api/shipments/my-shipments", app.protect(app.myShipments()))
	router.GET("/api/shipments/track/:trackingNumber", app.trackShipment())
	router.GET("/api/shipments/detail/:id", app.protect(app.getShipment()))
	router.PUT("/api/shipments/:id", app.protect(app.updateShipment(), store.RoleAdmin, store.RoleStaff))
	router.DELETE("/api/shipments/:id", app.protect(app.deleteShipment(), store.RoleAdmin))

	router.POST("/api/updates", app.protect(app.postUpdate(), store.RoleAdmin, store.RoleStaff))
	router.GET("/api/updates/:trackingNumber", app.updateHistory())

	router.GET("/api/reports/summary", app.protect(app.reportSummary(), store.RoleAdmin))

	return app.withCORS(router)
}
