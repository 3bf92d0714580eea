package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/msto63/kinematics/internal/evaluator/store"
	"github.com/spf13/cobra"
)

var (
	historyLimit   int
	historyProgram string
	historyErrors  bool
	historySince   time.Duration
	historyOlder   time.Duration
)

var historyCmd = &cobra.Command{
	Use:     "history",
	Aliases: []string{"runs"},
	Short:   "Zeigt gespeicherte Läufe",
	Long: `Zeigt die in der Historie gespeicherten Läufe (neueste zuerst).

Läufe werden von "kin serve" mit aktivierter Historie und von
"kin run --record" gespeichert.

Beispiele:
  kin history
  kin history --errors --since 24h
  kin history show <id>
  kin history stats
  kin history prune --older-than 720h`,
	Args: cobra.NoArgs,
	RunE: runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Details eines Laufs",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Statistik der Historie",
	Args:  cobra.NoArgs,
	RunE:  runHistoryStats,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Alte Läufe löschen",
	Args:  cobra.NoArgs,
	RunE:  runHistoryPrune,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd, historyStatsCmd, historyPruneCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximale Anzahl")
	historyCmd.Flags().StringVar(&historyProgram, "program", "", "Nur Läufe mit diesem Programm-Hash")
	historyCmd.Flags().BoolVar(&historyErrors, "errors", false, "Nur fehlgeschlagene Läufe")
	historyCmd.Flags().DurationVar(&historySince, "since", 0, "Nur Läufe der letzten Zeitspanne, z.B. 24h")

	historyPruneCmd.Flags().DurationVar(&historyOlder, "older-than", 0, "Aufbewahrungsdauer (default: Config)")
}

func openRunStore() (*store.SQLiteRunStore, error) {
	s, err := store.NewSQLiteRunStore(store.SQLiteConfig{Path: appConfig.Store.Path})
	if err != nil {
		return nil, fmt.Errorf("Historie nicht verfügbar: %w", err)
	}
	return s, nil
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	runs, err := openRunStore()
	if err != nil {
		return err
	}
	defer runs.Close()

	filter := store.RunFilter{
		ProgramHash: historyProgram,
		ErrorsOnly:  historyErrors,
		Limit:       historyLimit,
	}
	if historySince > 0 {
		filter.Since = time.Now().Add(-historySince)
	}

	list, err := runs.List(cmd.Context(), filter)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, "Keine Läufe gespeichert.")
		return nil
	}

	t := newTable("ID", "ZEIT", "PROGRAMM", "DAUER", "STATUS")
	for _, r := range list {
		status := okStyle.Render("ok")
		if r.Failed() {
			status = failStyle.Render(r.ErrorCode)
		}
		t.Row(
			r.ID,
			r.Timestamp.Local().Format("2006-01-02 15:04:05"),
			shortHash(r.ProgramHash),
			strconv.FormatFloat(r.DurationMS, 'f', 3, 64)+" ms",
			status,
		)
	}
	fmt.Fprintln(out, t.Render())
	fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("%d Lauf/Läufe", len(list))))
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	runs, err := openRunStore()
	if err != nil {
		return err
	}
	defer runs.Close()

	r, err := runs.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render("Lauf "+r.ID))
	fmt.Fprintf(out, "  Zeit:     %s\n", r.Timestamp.Local().Format(time.RFC3339))
	fmt.Fprintf(out, "  Programm: %s\n", r.ProgramHash)
	fmt.Fprintf(out, "  Dauer:    %.3f ms\n", r.DurationMS)
	if r.Failed() {
		fmt.Fprintf(out, "  Fehler:   %s (%s)\n", failStyle.Render(r.Error), r.ErrorCode)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, titleStyle.Render("Quelltext"))
	for i, line := range r.Source {
		fmt.Fprintf(out, "%s %s\n", dimStyle.Render(fmt.Sprintf("%4d", i+1)), line)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, titleStyle.Render("Eingabe"))
	if err := writeVariables(out, r.Inputs, "table"); err != nil {
		return err
	}
	if !r.Failed() {
		fmt.Fprintln(out, titleStyle.Render("Ergebnis"))
		return writeVariables(out, r.Outputs, "table")
	}
	return nil
}

func runHistoryStats(cmd *cobra.Command, args []string) error {
	runs, err := openRunStore()
	if err != nil {
		return err
	}
	defer runs.Close()

	stats, err := runs.Stats(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Historie")
	fmt.Fprintln(out, "========")
	fmt.Fprintf(out, "  Läufe:          %d\n", stats.TotalRuns)
	fmt.Fprintf(out, "  Fehlgeschlagen: %d\n", stats.FailedRuns)
	fmt.Fprintf(out, "  Programme:      %d\n", stats.DistinctPrograms)
	fmt.Fprintf(out, "  Mittlere Dauer: %.3f ms\n", stats.AvgDurationMS)
	if !stats.LastRun.IsZero() {
		fmt.Fprintf(out, "  Letzter Lauf:   %s\n", stats.LastRun.Local().Format(time.RFC3339))
	}
	return nil
}

func runHistoryPrune(cmd *cobra.Command, args []string) error {
	retention := appConfig.Store.Retention.Duration
	if historyOlder > 0 {
		retention = historyOlder
	}

	runs, err := openRunStore()
	if err != nil {
		return err
	}
	defer runs.Close()

	n, err := runs.Prune(cmd.Context(), retention)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d Lauf/Läufe älter als %s gelöscht.\n", n, retention)
	return nil
}

func shortHash(h string) string {
	h = strings.TrimSpace(h)
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
