package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sanchit-4/universal-nft/internal/config"
	httpservice "github.com/sanchit-4/universal-nft/internal/interface/http"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
)

// Version will be set during build time
var Version string

func main() {
	app := cli.NewApp()
	app.Name = "nftbridged"
	app.Version = Version
	app.Usage = "cross-chain NFT bridge daemon"
	app.Flags = config.Flags
	app.Action = mainAction

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func mainAction(ctx *cli.Context) error {
	cfg, err := config.LoadConfig(ctx)
	if err != nil {
		return fmt.Errorf("invalid config: %s", err)
	}

	log.SetLevel(log.Level(cfg.LogLevel))
	if viper.GetBool("log-json") {
		log.SetFormatter(&log.JSONFormatter{})
	}

	svc, err := httpservice.NewService(httpservice.Config{
		Port:   cfg.Port,
		NoAuth: cfg.NoAuth,
	}, cfg)
	if err != nil {
		return err
	}

	log.Infof("nftbridged config: %s", cfg)
	if cfg.NoAuth {
		log.Warn("request signatures are not verified, do not expose this service publicly")
	}

	log.Info("starting service...")
	if err := svc.Start(); err != nil {
		return err
	}

	log.RegisterExitHandler(svc.Stop)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(
		sigChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGHUP, os.Interrupt,
	)
	<-sigChan

	log.Info("shutting down service...")
	log.Exit(0)

	return nil
}
