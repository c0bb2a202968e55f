package cli

import (
	"fmt"
	"text/tabwriter"

	"stock_sim/internal/domain"
	"stock_sim/internal/infra"
	"stock_sim/internal/infra/storage"

	"github.com/spf13/cobra"
)

func newJournalCmd(rc *RootConfig) *cobra.Command {
	var (
		limit  int
		dbPath string
	)

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "List recorded transactions",
		Long: `Print executed trades from the SQLite journal, newest first.

Examples:
  stocksim journal
  stocksim journal --limit 5 --db data/stocksim.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				cfg, err := infra.LoadConfig(rc.ConfigPath)
				if err != nil {
					return err
				}
				dbPath = cfg.Storage.Path
			}

			store, err := storage.NewStorage(dbPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer store.Close()

			ctx := contextOrBackground(cmd.Context())
			txs, err := store.ListTransactions(ctx, limit)
			if err != nil {
				return fmt.Errorf("query transactions: %w", err)
			}
			total, err := store.CountTransactions(ctx)
			if err != nil {
				return fmt.Errorf("count transactions: %w", err)
			}
			return printTransactions(cmd, txs, total)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of transactions (0 = all)")
	cmd.Flags().StringVarP(&dbPath, "db", "d", "", "path to SQLite journal DB (default from config)")
	return cmd
}

func printTransactions(cmd *cobra.Command, txs []domain.Transaction, total int64) error {
	out := cmd.OutOrStdout()
	if len(txs) == 0 {
		fmt.Fprintln(out, "No transactions recorded.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tSIDE\tSYMBOL\tSHARES\tPRICE\tTOTAL\tID")
	for _, tx := range txs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			tx.Timestamp.Local().Format("2006-01-02 15:04:05"),
			tx.Side, tx.Symbol, tx.Shares,
			tx.Price.StringFixed(domain.PricePrecision),
			tx.Total().StringFixed(domain.PricePrecision),
			tx.ID)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Showing %d of %d transactions.\n", len(txs), total)
	return nil
}
