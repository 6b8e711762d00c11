package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// .env es opcional; en prod la config llega por entorno real.
	_ = godotenv.Load()

	var configPath string

	root := &cobra.Command{
		Use:   "mailroom",
		Short: "Motor de envío de email multi-tenant",
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", envOr("MAILROOM_CONFIG", ""), "ruta al config.yaml (opcional)")

	root.AddCommand(
		newSendCmd(&configPath),
		newTestSMTPCmd(&configPath),
		newMigrateCmd(&configPath),
		newEncCmd(&configPath),
	)

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func printErr(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
