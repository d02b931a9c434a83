// Package cli implements the therapy-memory administrative CLI.
//
// The chat path talks to the engine in-process; these commands exist for
// operators debugging and maintaining a user's memory graph.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mindhaven/therapy-memory/internal/engine"
	"github.com/mindhaven/therapy-memory/internal/store"
)

var (
	dbPath  string
	verbose bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "therapy-memory",
	Short: "Therapeutic memory engine admin tools",
	Long:  "Inspect and maintain the conversational memory graph: memories, connections, sessions and threads.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		godotenv.Load()
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $THERAPY_MEMORY_DB or ~/.therapy-memory/memory.db)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable engine logging")
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	if env := os.Getenv("THERAPY_MEMORY_DB"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".therapy-memory", "memory.db")
}

func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewProduction()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func openStore() (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(getDBPath())
}

func openManager() (*engine.Manager, *store.SQLiteStore, error) {
	s, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	return engine.NewManager(s, newLogger()), s, nil
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
