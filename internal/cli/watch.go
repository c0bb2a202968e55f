package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stock_sim/internal/domain"
	"stock_sim/internal/infra"
	"stock_sim/internal/infra/storage"

	"github.com/spf13/cobra"
)

func newWatchCmd(rc *RootConfig) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Manage the watchlist",
		Long: `Mark instruments as favourites in the SQLite catalogue.
The next run restores them on the quote board and /api/watchlist.

Examples:
  stocksim watch add NVDA
  stocksim watch remove NVDA
  stocksim watch list`,
	}
	cmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "path to SQLite DB (default from config)")

	// open loads the config for the listed symbols and opens the catalogue
	open := func() (*infra.Config, *storage.Storage, error) {
		cfg, err := infra.LoadConfig(rc.ConfigPath)
		if err != nil {
			return nil, nil, err
		}
		path := dbPath
		if path == "" {
			path = cfg.Storage.Path
		}
		store, err := storage.NewStorage(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open db: %w", err)
		}
		return cfg, store, nil
	}

	setWatched := func(want bool) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()

			symbol := strings.ToUpper(args[0])
			if err := setFavorite(contextOrBackground(cmd.Context()), cfg, store, symbol, want); err != nil {
				return err
			}

			verb := "added to"
			if !want {
				verb = "removed from"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s watchlist\n", symbol, verb)
			return nil
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <symbol>",
			Short: "Add a symbol to the watchlist",
			Args:  cobra.ExactArgs(1),
			RunE:  setWatched(true),
		},
		&cobra.Command{
			Use:   "remove <symbol>",
			Short: "Remove a symbol from the watchlist",
			Args:  cobra.ExactArgs(1),
			RunE:  setWatched(false),
		},
		&cobra.Command{
			Use:   "list",
			Short: "List watched symbols",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				_, store, err := open()
				if err != nil {
					return err
				}
				defer store.Close()

				infos, err := store.GetAllInstruments(contextOrBackground(cmd.Context()))
				if err != nil {
					return fmt.Errorf("query catalogue: %w", err)
				}

				out := cmd.OutOrStdout()
				n := 0
				for _, info := range infos {
					if info.IsFavorite {
						fmt.Fprintln(out, info.Symbol)
						n++
					}
				}
				if n == 0 {
					fmt.Fprintln(out, "Watchlist is empty.")
				}
				return nil
			},
		},
	)
	return cmd
}

// setFavorite catalogues symbol from the config when the simulation has not
// synced it yet, then flips the flag only if it differs from want.
func setFavorite(ctx context.Context, cfg *infra.Config, store *storage.Storage, symbol string, want bool) error {
	info, err := store.GetInstrument(ctx, symbol)
	if err != nil {
		return fmt.Errorf("query catalogue: %w", err)
	}

	if info == nil {
		listed := false
		for _, inst := range cfg.Market.Instruments {
			if inst.Symbol == symbol {
				info = &storage.InstrumentInfo{Symbol: symbol, InitialPrice: inst.Price, UpdatedAt: time.Now()}
				listed = true
				break
			}
		}
		if !listed {
			return fmt.Errorf("%w: %s is not listed on the market", domain.ErrNotFound, symbol)
		}
		if err := store.UpsertInstrument(ctx, info); err != nil {
			return fmt.Errorf("catalogue %s: %w", symbol, err)
		}
	}

	if info.IsFavorite == want {
		return nil
	}
	if _, err := store.ToggleFavorite(ctx, symbol); err != nil {
		return fmt.Errorf("toggle %s: %w", symbol, err)
	}
	return nil
}
