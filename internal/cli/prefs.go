package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/slotbot/internal/core/config"
	"github.com/vietddude/slotbot/internal/infra/prefs"
	redisclient "github.com/vietddude/slotbot/internal/infra/redis"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Inspect stored booking preferences",
}

var prefsShowCmd = &cobra.Command{
	Use:   "show <beneficiary-id>",
	Short: "Show the stored preference for a beneficiary",
	Args:  cobra.ExactArgs(1),
	Run:   runPrefsShow,
}

var prefsDeleteCmd = &cobra.Command{
	Use:   "delete <beneficiary-id>",
	Short: "Delete the stored preference for a beneficiary",
	Args:  cobra.ExactArgs(1),
	Run:   runPrefsDelete,
}

func init() {
	prefsCmd.AddCommand(prefsShowCmd, prefsDeleteCmd)
	rootCmd.AddCommand(prefsCmd)
}

func openStore(cfg *config.AppConfig) (prefs.Store, func(), error) {
	switch cfg.Preferences.Backend {
	case "", "file":
		return prefs.NewFileStore(cfg.Preferences.Dir), func() {}, nil
	case "redis":
		rc, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return prefs.NewRedisStore(rc), func() { _ = rc.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown preference backend %q", cfg.Preferences.Backend)
}

func runPrefsShow(cmd *cobra.Command, args []string) {
	cfg := setup()
	store, closeStore, err := openStore(cfg)
	if err != nil {
		slog.Error("Failed to open preference store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pref, found, err := store.Load(ctx, args[0])
	if err != nil {
		slog.Error("Failed to load preference", "error", err)
		os.Exit(1)
	}
	if !found {
		fmt.Printf("No preference stored for beneficiary %s.\n", args[0])
		return
	}

	out, _ := json.MarshalIndent(pref, "", "  ")
	fmt.Println(string(out))
}

func runPrefsDelete(cmd *cobra.Command, args []string) {
	cfg := setup()
	store, closeStore, err := openStore(cfg)
	if err != nil {
		slog.Error("Failed to open preference store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := store.Delete(ctx, args[0]); err != nil {
		slog.Error("Failed to delete preference", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Preference for beneficiary %s deleted.\n", args[0])
}
