package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/zjrosen/instadash/internal/history"
	"github.com/zjrosen/instadash/internal/infrastructure/sqlite"
	"github.com/zjrosen/instadash/internal/ui/styles"
)

var (
	historyLimit   int
	historyOutcome string
	historySession string
	pruneOlderThan time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect past generation attempts",
	Long: `Every generation attempt is recorded in a local SQLite database
(history.path). Only metadata is stored; generated HTML is never kept.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent attempts, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete attempts older than a cutoff",
	Args:  cobra.NoArgs,
	RunE:  runHistoryPrune,
}

func init() {
	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", sqlite.DefaultListLimit, "maximum rows to show")
	historyListCmd.Flags().StringVar(&historyOutcome, "outcome", "", "only show this outcome (success, validation, service, transport, decode)")
	historyListCmd.Flags().StringVar(&historySession, "session", "", "only show attempts from this session ID")
	historyPruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 30*24*time.Hour, "age of the oldest attempt to keep")

	historyCmd.AddCommand(historyListCmd, historyPruneCmd)
	rootCmd.AddCommand(historyCmd)
}

func openHistory() (*sqlite.DB, error) {
	cfg := loaded.Config.History
	if !cfg.Enabled {
		return nil, errors.New("history is disabled (history.enabled: false)")
	}
	return sqlite.NewDB(cfg.Path)
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	db, err := openHistory()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	attempts, err := db.AttemptRepository().List(history.Filter{
		SessionID: historySession,
		Outcome:   historyOutcome,
		Limit:     historyLimit,
	})
	if err != nil {
		return err
	}
	if len(attempts) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No attempts recorded.")
		return nil
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), renderHistory(attempts))
	return nil
}

func renderHistory(attempts []history.Attempt) string {
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(styles.BorderDefaultColor)).
		Headers("STARTED", "SESSION", "#", "OUTCOME", "TEMP", "JSON", "HTML", "TOOK", "PROMPT").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			if col == 3 {
				if attempts[row].Succeeded() {
					return cell.Foreground(styles.StatusSuccessColor)
				}
				return cell.Foreground(styles.StatusErrorColor)
			}
			return cell
		})

	for _, a := range attempts {
		t.Row(
			a.StartedAt.Local().Format("2006-01-02 15:04:05"),
			shortID(a.SessionID),
			strconv.Itoa(a.Number),
			a.Outcome,
			fmt.Sprintf("%.1f", a.Temperature),
			styles.FormatBytes(a.JSONBytes),
			styles.FormatBytes(a.HTMLBytes),
			a.Duration().Round(time.Millisecond).String(),
			styles.TruncateString(a.Prompt, 40),
		)
	}
	return t.Render()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func runHistoryPrune(cmd *cobra.Command, _ []string) error {
	if pruneOlderThan <= 0 {
		return fmt.Errorf("--older-than must be positive, got %s", pruneOlderThan)
	}
	db, err := openHistory()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	n, err := db.AttemptRepository().Prune(time.Now().Add(-pruneOlderThan))
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d attempt(s).\n", n)
	return nil
}
