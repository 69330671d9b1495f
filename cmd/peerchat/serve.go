package main

import (
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gauravsingh786/peerchat/internal/config"
	"github.com/gauravsingh786/peerchat/internal/logging"
	"github.com/gauravsingh786/peerchat/internal/server"
	"github.com/gauravsingh786/peerchat/internal/signaling"
)

var (
	flagListenAddr string
	flagLogLevel   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the signaling relay server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(config.Options{
			ListenAddr: flagListenAddr,
			LogLevel:   flagLogLevel,
		})
		if err != nil {
			return err
		}
		logging.Init(cfg.LogLevel)

		hub := signaling.NewHub()
		go hub.Run()

		logrus.WithField("addr", cfg.ListenAddr).Info("starting signaling relay")
		return http.ListenAndServe(cfg.ListenAddr, server.NewMux(hub))
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagListenAddr, "addr", "", "listen address (default :8080)")
	serveCmd.Flags().StringVar(&flagLogLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.AddCommand(serveCmd)
}
