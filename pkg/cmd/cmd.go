// Package cmd contains the command line applications for the project.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yeisme/voxvault/pkg/app"
)

var (
	// configPath 配置文件路径，空则走默认搜索路径与环境变量.
	configPath string

	rootCmd = &cobra.Command{
		Use:   "voxvault",
		Short: "Media transcription, analysis and chat service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}

	serverCmd = &cobra.Command{
		Use:   "server",
		Short: "start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
)

func runServer() error {
	return app.NewApp(configPath).Run()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the config file")

	rootCmd.AddCommand(serverCmd)

	registerConfigsCommands()
	registerDBCommands()
	registerKVCommands()
	registerMQCommands()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
