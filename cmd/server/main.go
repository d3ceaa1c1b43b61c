package main

import (
	"net/http"
	"os"

	_ "github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"

	"github.com/quitanda/lossprev/internal/api"
	"github.com/quitanda/lossprev/internal/cache"
	"github.com/quitanda/lossprev/internal/config"
	"github.com/quitanda/lossprev/internal/erp"
	"github.com/quitanda/lossprev/internal/ingestion"
	"github.com/quitanda/lossprev/internal/reconcile"
	"github.com/quitanda/lossprev/internal/report"
	"github.com/quitanda/lossprev/internal/repository"
)

func main() {
	cfg := config.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	log.WithField("path", cfg.DBPath).Info("initializing database")
	db, err := repository.InitDB(cfg.DBPath)
	if err != nil {
		log.WithField("err", err).Fatal("failed to init db")
	}
	defer db.Close()

	fileCache, err := cache.New(cfg.CacheDir, cfg.CacheTTL, log)
	if err != nil {
		log.WithField("err", err).Fatal("failed to init cache")
	}

	// The ERP mirror is optional: without a DSN every remote query degrades
	// to an empty result.
	var querier erp.Querier
	if cfg.ERPDSN != "" {
		client, err := erp.Connect(cfg.ERPDriver, cfg.ERPDSN)
		if err != nil {
			log.WithField("err", err).Warn("erp unavailable, monthly losses will be empty")
		} else {
			defer client.Close()
			querier = client
		}
	} else {
		log.Info("ERP_DSN not set, monthly losses will be empty")
	}

	// Repositories.
	eventRepo := repository.NewLossEventRepo(db)
	reasonRepo := repository.NewIgnoredReasonRepo(db)

	// Services.
	ingestSvc := ingestion.NewService(eventRepo, log)
	reportSvc := report.NewService(eventRepo, reasonRepo, log)
	reconSvc := reconcile.NewService(querier, fileCache, log)

	router := api.NewRouter(eventRepo, reasonRepo, ingestSvc, reportSvc, reconSvc, fileCache, log)

	log.WithField("port", cfg.Port).Info("loss-prevention back office listening")
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.WithField("err", err).Fatal("server failed")
	}
}
