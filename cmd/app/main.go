// Package main for the mayl email dispatch service
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"

	"golang.org/x/sys/unix"

	"github.com/maylhq/mayl/config"
	"github.com/maylhq/mayl/pkg/api"
	"github.com/maylhq/mayl/pkg/auth"
	"github.com/maylhq/mayl/pkg/db"
	"github.com/maylhq/mayl/pkg/dispatch"
	"github.com/maylhq/mayl/pkg/email"
	"github.com/maylhq/mayl/pkg/metrics"
	"github.com/maylhq/mayl/pkg/workers"
)

func main() {

	// This is needed to make `glog` believe that the flags have already been parsed, otherwise
	// every log messages is prefixed by an error message stating the flags haven't been
	// parsed.
	_ = flag.CommandLine.Parse([]string{})

	// Always log to stderr by default, required for glog.
	if err := flag.Set("logtostderr", "true"); err != nil {
		glog.Info("unable to set logtostderr to true.")
	}

	cfg, err := config.GetConfig()
	if err != nil {
		glog.Fatal(err)
	}

	dbConn, err := db.NewDatabaseConnection(
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)
	if err != nil {
		glog.Fatalf("failed to connect to database: %v", err)
	}
	if err := dbConn.Migrate(); err != nil {
		glog.Fatalf("failed to run database migrations: %v", err)
	}

	seedDomains(dbConn, cfg.SeedDomains)

	creds := email.NewCredentials(cfg.SMTPUser, cfg.SMTPPassword)
	loadCredentials(dbConn, creds)

	sender := email.NewEmailSender(cfg, creds)

	dispatcher := dispatch.NewDispatcher(dbConn, sender)
	gate := auth.NewGate(dbConn)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deliveryWorker := &workers.DeliveryWorker{
		DbConn:      dbConn,
		Sender:      sender,
		Period:      cfg.QueuePollInterval,
		MaxAttempts: cfg.MaxDeliveryAttempts,
	}
	go func() {
		if err := deliveryWorker.Run(ctx); err != nil && ctx.Err() == nil {
			glog.Errorf("delivery worker stopped: %v", err)
		}
	}()

	culler := &workers.ArchiveCuller{
		DbConn:  dbConn,
		Period:  cfg.ArchiveCullInterval,
		MaxRows: cfg.ArchiveMaxRows,
	}
	go func() {
		if err := culler.Run(ctx); err != nil && ctx.Err() == nil {
			glog.Errorf("archive culler stopped: %v", err)
		}
	}()

	metricsServer := metrics.NewMetricsServer(cfg.MetricsAddress)
	go func() {
		glog.Info("Creating metrics server...")
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			glog.Errorf("metrics ListenAndServe error: %v", err)
		}
	}()

	router := api.SetupRoutes(
		api.NewEmailHandler(dispatcher, gate),
		api.NewDomainHandler(dispatcher),
		api.NewSMTPHandler(creds, dbConn),
		api.NewHealthHandler(dispatcher),
		api.NewIndexHandler(dispatcher, creds, cfg),
	)

	server := http.Server{Addr: cfg.ServerAddress, Handler: router}

	go func() {
		glog.Infof("Creating api server on %s...", cfg.ServerAddress)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			glog.Fatalf("HTTP API ListenAndServe error: %v", err)
		}
	}()

	sigs := make(chan os.Signal, 1)
	notifySignals := []os.Signal{os.Interrupt, unix.SIGTERM}
	signal.Notify(sigs, notifySignals...)

	glog.Infof("Application started. Will shut down gracefully on %s.", notifySignals)
	sig := <-sigs
	cancel()

	if err := server.Shutdown(context.Background()); err != nil {
		glog.Errorf("API Shutdown error: %v", err)
	}
	if err := metricsServer.Shutdown(context.Background()); err != nil {
		glog.Errorf("Metrics Shutdown error: %v", err)
	}

	glog.Infof("Caught %s signal", sig)
	glog.Info("mayl application has been stopped")
}

// seedDomains registers any domains from the environment that are not
// already known. Existing registrations keep their tokens.
func seedDomains(dbConn db.DatabaseClient, domains []string) {
	for _, domain := range domains {
		inserted, err := dbConn.InsertDomainIfAbsent(domain, uuid.NewString(), time.Now().UnixMilli())
		if err != nil {
			glog.Errorf("failed to seed domain %q: %v", domain, err)
			continue
		}
		if inserted {
			glog.Infof("seeded domain %q", domain)
		}
	}
}

// loadCredentials resolves SMTP credentials with the settings table taking
// precedence over the environment.
func loadCredentials(dbConn db.DatabaseClient, creds *email.Credentials) {
	user, pass := creds.Get()

	if stored, found, err := dbConn.GetSetting(api.SettingSMTPUser); err != nil {
		glog.Errorf("failed to read stored SMTP user: %v", err)
	} else if found {
		user = stored
		if storedPass, passFound, err := dbConn.GetSetting(api.SettingSMTPPass); err != nil {
			glog.Errorf("failed to read stored SMTP password: %v", err)
		} else if passFound {
			pass = storedPass
		}
	}

	creds.Set(user, pass)
	if user == "" {
		glog.Info("no SMTP credentials configured (use POST /smtp to set)")
	} else {
		glog.Infof("SMTP credentials configured for user %q", user)
	}
}
