// Command kerneld is the kernel's HTTP process entrypoint: it wires
// configuration, logging, CouchDB adapters, retry, the kernel session,
// the HTTP surface and metrics together and serves until signalled,
// grounded on the teacher's cli/root.go runServer startup/shutdown
// sequence.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"eve.evalgo.org/kernel/internal/adapter/couchdb"
	"eve.evalgo.org/kernel/internal/config"
	"eve.evalgo.org/kernel/internal/entity"
	"eve.evalgo.org/kernel/internal/httpapi"
	"eve.evalgo.org/kernel/internal/kernel"
	"eve.evalgo.org/kernel/internal/logging"
	"eve.evalgo.org/kernel/internal/metrics"
	"eve.evalgo.org/kernel/internal/retry"
	"eve.evalgo.org/kernel/internal/store"
)

type metricsObserver struct {
	m *metrics.Metrics
}

func (o metricsObserver) Notify(_ context.Context, entityKind, _ string, _ bool, _ time.Time) {
	o.m.ObserveWrite(entityKind, true, 0)
	o.m.ObserveChangeAppend(true)
}

func serveMetrics(port int) {
	addr := ":" + strconv.Itoa(port)
	logging.Logger.Infof("kerneld: metrics listening on %s", addr)
	if err := http.ListenAndServe(addr, promhttp.Handler()); err != nil && err != http.ErrServerClosed {
		logging.Logger.WithError(err).Error("metrics server stopped")
	}
}

func main() {
	cfg := config.Load()
	logging.SetLevel(os.Getenv("KERNEL_LOG_LEVEL"))
	logging.SetJSON(os.Getenv("KERNEL_LOG_JSON") == "true")

	ctx := context.Background()

	client, err := couchdb.Connect(cfg.CouchDBDSN)
	if err != nil {
		log.Fatalf("kerneld: connect couchdb: %v", err)
	}

	journalsDB, err := couchdb.EnsureDB(ctx, client, "journals")
	if err != nil {
		log.Fatalf("kerneld: ensure journals db: %v", err)
	}
	bundlesDB, err := couchdb.EnsureDB(ctx, client, "documents_bundles")
	if err != nil {
		log.Fatalf("kerneld: ensure bundles db: %v", err)
	}
	documentsDB, err := couchdb.EnsureDB(ctx, client, "documents")
	if err != nil {
		log.Fatalf("kerneld: ensure documents db: %v", err)
	}
	changesDB, err := couchdb.EnsureDB(ctx, client, "changes")
	if err != nil {
		log.Fatalf("kerneld: ensure changes db: %v", err)
	}

	var journals store.DataStore[entity.ContainerManifest] = couchdb.NewStore[entity.ContainerManifest](journalsDB)
	var bundles store.DataStore[entity.ContainerManifest] = couchdb.NewStore[entity.ContainerManifest](bundlesDB)
	var documents store.DataStore[entity.DocumentManifest] = couchdb.NewStore[entity.DocumentManifest](documentsDB)
	var changesStore store.ChangesDataStore = couchdb.NewChanges(changesDB)

	sess := kernel.NewSession(journals, bundles, documents, changesStore)
	sess.RetryCfg = retry.Config{MaxRetries: cfg.MaxRetries, BackoffFactor: cfg.BackoffFactor}

	if cfg.PrometheusEnabled {
		m := metrics.New("")
		sess.AddObserver(metricsObserver{m: m})
		sess.RetryCfg.OnAttempt = func() { m.RetryAttempts.WithLabelValues("store").Inc() }
		sess.RetryCfg.OnExhausted = func() { m.RetryExhausted.WithLabelValues("store").Inc() }
		go serveMetrics(cfg.PrometheusPort)
	}

	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.CORS())
	httpapi.SetupRoutes(e, httpapi.NewHandlers(sess), os.Getenv("KERNEL_API_KEY"), os.Getenv("KERNEL_JWT_SECRET"))

	port := os.Getenv("KERNEL_HTTP_PORT")
	if port == "" {
		port = "8086"
	}
	go func() {
		logging.Logger.Infof("kerneld: listening on :%s", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			log.Fatalf("kerneld: serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logging.Logger.Info("kerneld: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Fatal(err)
	}
}
