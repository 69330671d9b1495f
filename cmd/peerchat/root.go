package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "peerchat",
	Short: "Room-scoped WebRTC signaling relay and peer client",
	Long: `Peerchat is a real-time signaling relay: participants in a named room
exchange session-negotiation messages (offers, answers, network candidates)
and short text chat, while the media itself flows directly between peers.

The relay never interprets or stores negotiation payloads and keeps no state
beyond the lifetime of the process.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
