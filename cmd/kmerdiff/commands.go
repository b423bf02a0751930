package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/kmerdiff/internal/config"
	"github.com/verte-zerg/kmerdiff/internal/deviation"
	"github.com/verte-zerg/kmerdiff/internal/model"
	"github.com/verte-zerg/kmerdiff/internal/refmodel"
	"github.com/verte-zerg/kmerdiff/internal/report"
	"github.com/verte-zerg/kmerdiff/internal/reportui"
	"github.com/verte-zerg/kmerdiff/internal/store"
	"github.com/verte-zerg/kmerdiff/internal/summary"
)

var (
	selTreatment string
	selAlphabet  string
	modelFofns   []string
	outFormat    string
	dateLayout   string
	colorOutput  bool
	saveHistory  bool
	historySince string
)

func addSelectionFlags(cmd *cobra.Command, required bool) {
	cmd.Flags().StringVar(&selTreatment, "treatment", "", "treatment to report (e.g. none, M.SssI)")
	cmd.Flags().StringVar(&selAlphabet, "alphabet", "", "alphabet to report (nucleotide or cpg)")
	cmd.Flags().StringVar(&dateLayout, "date-layout", report.DateLayoutDMY, "Go time layout of run dates")
	if required {
		_ = cmd.MarkFlagRequired("treatment")
		_ = cmd.MarkFlagRequired("alphabet")
	}
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&outFormat, "format", defaultFormat, "output format (latex or text)")
	cmd.Flags().BoolVar(&colorOutput, "color", false, "colour text table headers")
}

func addModelsFlag(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&modelFofns, "models", nil, "file listing reference model files, one per line (repeatable)")
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [flags] summary...",
		Short: "Compare training summaries against reference models and print a table",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runReportCmd,
	}
	addSelectionFlags(cmd, true)
	addOutputFlags(cmd)
	addModelsFlag(cmd)
	cmd.Flags().BoolVar(&saveHistory, "save", false, "save the aggregated rows to the history database")
	return cmd
}

func runReportCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadFileConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := reportOptions(cmd, cfg)
	if err != nil {
		return err
	}
	applyBoolConfig(cmd, "save", &saveHistory, cfg.History.Save)

	refs, err := loadReferences(cmd, cfg)
	if err != nil {
		return err
	}
	results, err := compare(refs, args)
	if err != nil {
		return err
	}
	if saveHistory {
		if err := saveRuns(cmd.Context(), results); err != nil {
			return err
		}
	}
	return report.Render(cmd.OutOrStdout(), deviation.Flatten(results), opts)
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print a table from saved comparison rows",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	addSelectionFlags(cmd, true)
	addOutputFlags(cmd)
	cmd.Flags().StringVar(&historySince, "since", "", "only rows saved on or after this date (YYYY-MM-DD)")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadFileConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := reportOptions(cmd, cfg)
	if err != nil {
		return err
	}
	rows, err := historyRows(cmd.Context())
	if err != nil {
		return err
	}
	return report.Render(cmd.OutOrStdout(), rows, opts)
}

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view [flags] [summary...]",
		Short: "Browse comparison rows interactively",
		RunE:  runViewCmd,
	}
	addSelectionFlags(cmd, true)
	addModelsFlag(cmd)
	return cmd
}

func runViewCmd(cmd *cobra.Command, args []string) error {
	if !isTerminal(cmd) {
		return fmt.Errorf("view needs a terminal; use report --format text instead")
	}
	cfg, err := loadFileConfig(cmd)
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "date-layout", &dateLayout, cfg.Report.DateLayout)
	if err := normalizeAlphabet(); err != nil {
		return err
	}

	var rows []model.Row
	if len(args) > 0 {
		refs, err := loadReferences(cmd, cfg)
		if err != nil {
			return err
		}
		results, err := compare(refs, args)
		if err != nil {
			return err
		}
		rows = deviation.Flatten(results)
	} else if rows, err = historyRows(cmd.Context()); err != nil {
		return err
	}

	groups, err := report.Select(rows, selTreatment, selAlphabet, dateLayout)
	if err != nil {
		return err
	}
	program := tea.NewProgram(reportui.NewModel(groups, selTreatment, selAlphabet), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run viewer: %w", err)
	}
	return nil
}

func newModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List loaded reference models",
		Args:  cobra.NoArgs,
		RunE:  runModelsCmd,
	}
	addModelsFlag(cmd)
	return cmd
}

func runModelsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadFileConfig(cmd)
	if err != nil {
		return err
	}
	refs, err := loadReferences(cmd, cfg)
	if err != nil {
		return err
	}
	for _, id := range refs.Identities() {
		m, err := refs.Lookup(id)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\tk=%d\tkmers=%d\t%s\n", id, m.Order, m.NumKmers(), m.Name); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func reportOptions(cmd *cobra.Command, cfg config.FileConfig) (report.Options, error) {
	applyStringConfig(cmd, "format", &outFormat, cfg.Report.Format)
	applyStringConfig(cmd, "date-layout", &dateLayout, cfg.Report.DateLayout)
	format, err := report.ParseFormat(outFormat)
	if err != nil {
		return report.Options{}, err
	}
	if err := normalizeAlphabet(); err != nil {
		return report.Options{}, err
	}
	return report.Options{
		Treatment:  selTreatment,
		Alphabet:   selAlphabet,
		Format:     format,
		DateLayout: dateLayout,
		Color:      format == report.FormatText && resolveColor(cmd, colorOutput, cfg),
	}, nil
}

// normalizeAlphabet replaces --alphabet with the canonical alphabet name so
// it matches the names stored on rows.
func normalizeAlphabet() error {
	a, err := model.LookupAlphabet(selAlphabet)
	if err != nil {
		return fmt.Errorf("--alphabet: %w", err)
	}
	selAlphabet = a.Name
	return nil
}

func loadReferences(cmd *cobra.Command, cfg config.FileConfig) (*refmodel.Store, error) {
	fofns := resolveFofns(cmd, modelFofns, cfg)
	if len(fofns) == 0 {
		return nil, fmt.Errorf("no reference model lists found; pass --models or set [reference] fofns in %s", configPath)
	}
	refs, err := refmodel.Load(logger, fofns...)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded reference models", zap.Int("models", refs.Len()), zap.Strings("fofns", fofns))
	return refs, nil
}

// compare parses and aggregates every summary in order. The first failure
// aborts the run.
func compare(refs *refmodel.Store, paths []string) ([]deviation.Result, error) {
	summaries := make([]model.TrainingSummary, 0, len(paths))
	for _, path := range paths {
		s, err := summary.Parse(path)
		if err != nil {
			return nil, err
		}
		logger.Debug("parsed training summary",
			zap.String("path", path),
			zap.String("sample", s.Run.Sample),
			zap.Strings("models", s.ModelNames()))
		summaries = append(summaries, s)
	}
	results, err := deviation.AggregateAll(summaries, refs)
	if err != nil {
		return nil, err
	}
	logger.Info("aggregated training summaries", zap.Int("summaries", len(results)))
	return results, nil
}

func saveRuns(ctx context.Context, results []deviation.Result) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logger.Warn("failed to close db", zap.Error(cerr))
		}
	}()

	for _, r := range results {
		if _, err := st.SaveRun(ctx, r.Summary.Path, r.Summary.Run, r.Rows); err != nil {
			return fmt.Errorf("failed to save %s: %w", r.Summary.Path, err)
		}
		logger.Debug("saved run", zap.String("path", r.Summary.Path), zap.Int("rows", len(r.Rows)))
	}
	n, err := st.CountRuns(ctx)
	if err != nil {
		return fmt.Errorf("failed to count saved runs: %w", err)
	}
	logger.Info("history updated", zap.Int("runs", n), zap.String("db", dbPath))
	return nil
}

func historyRows(ctx context.Context) ([]model.Row, error) {
	filter := store.Filter{Treatment: selTreatment, Alphabet: selAlphabet}
	if historySince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", historySince, time.Local)
		if err != nil {
			return nil, fmt.Errorf("invalid --since value: %w", err)
		}
		filter.Since = &parsed
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logger.Warn("failed to close db", zap.Error(cerr))
		}
	}()
	rows, err := st.ListRows(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return rows, nil
}
