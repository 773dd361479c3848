package main

import (
	"fmt"
	"os"

	"github.com/migi-gluttony/SADSA-ORMVAT-sub000/internal/cli"
	"github.com/migi-gluttony/SADSA-ORMVAT-sub000/internal/config"
	internal_http "github.com/migi-gluttony/SADSA-ORMVAT-sub000/internal/http"
	"github.com/migi-gluttony/SADSA-ORMVAT-sub000/internal/log"
	internal_storage "github.com/migi-gluttony/SADSA-ORMVAT-sub000/internal/storage"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{Use: "sadsa"}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the workflow HTTP server",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			log.GetLogger().Errorf("Failed to load config: %v", err)
			os.Exit(1)
		}
		dbConnStr, _ := cmd.Flags().GetString("db")
		if dbConnStr == "" {
			dbConnStr = cfg.Database.DSN()
		}
		store, err := internal_storage.InitStore(dbConnStr)
		if err != nil {
			log.GetLogger().Errorf("Failed to initialize store: %v", err)
			os.Exit(1)
		}
		defer store.Close()
		if err := internal_http.StartServer(cfg.Server.Port, store); err != nil {
			log.GetLogger().Errorf("Server stopped: %v", err)
			os.Exit(1)
		}
	},
}

func main() {
	rootCmd.PersistentFlags().String("db", "", "Database connection string (defaults to config)")
	rootCmd.AddCommand(serveCmd)
	cli.SetupCLI(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
