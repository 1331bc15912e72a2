package commands

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/vxverify/vxverify/internal/logging"
	"github.com/vxverify/vxverify/internal/safefile"
	"github.com/vxverify/vxverify/internal/vx"
	"go.uber.org/zap"
)

// maxBatchFileBytes caps the size of a batch input file.
const maxBatchFileBytes = 16 << 20

func newBatchCmd() *cobra.Command {
	var (
		file        string
		concurrency int
		ratePerSec  float64
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Verify many rounds listed in a file",
		Long: `Verify every round listed in a file. Each non-empty line holds a round
index and its revealed hash separated by whitespace or a comma; lines
starting with # are ignored.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := safefile.ReadFileMax(file, maxBatchFileBytes)
			if err != nil {
				return fmt.Errorf("reading rounds: %w", err)
			}
			inputs, err := parseRounds(data)
			if err != nil {
				return err
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			if cmd.Flags().Changed("concurrency") {
				a.cfg.Batch.Concurrency = concurrency
			}
			if cmd.Flags().Changed("rate") {
				a.cfg.Batch.RatePerSec = ratePerSec
			}
			if err := a.cfg.Validate(); err != nil {
				return fmt.Errorf("validation error: %w", err)
			}

			runID := uuid.NewString()
			logger := logging.WithRun(a.logger, runID)
			logger.Info("batch started",
				zap.Int("rounds", len(inputs)),
				zap.Int("concurrency", a.cfg.Batch.Concurrency),
				zap.Float64("rate_per_sec", a.cfg.Batch.RatePerSec),
			)

			start := time.Now()
			items := vx.NewBatchVerifier(a.svc, a.cfg.Batch.Concurrency, a.cfg.Batch.RatePerSec).Run(cmd.Context(), inputs)
			summary := vx.Summarize(items)
			logger.Info("batch finished",
				zap.Int("verified", summary.Verified),
				zap.Int("total", summary.Total),
				zap.Duration("elapsed", time.Since(start)),
			)

			if url := a.cfg.Metrics.PushgatewayURL; url != "" {
				if err := a.recorder.Push(cmd.Context(), url, a.cfg.Metrics.Job, runID); err != nil {
					logger.Warn("metrics push failed", zap.Error(err))
				}
			}

			if asJSON {
				if err := writeBatchJSON(cmd, runID, items, summary); err != nil {
					return err
				}
			} else {
				printBatch(newPrinter(cmd.OutOrStdout()), runID, items, summary)
			}

			if cmd.Context().Err() != nil {
				return cmd.Context().Err()
			}
			if !summary.AllVerified() {
				return fmt.Errorf("%d of %d rounds verified: %w", summary.Verified, summary.Total, errNotVerified)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "file with one \"index hash\" pair per line")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "rounds verified at once (default from config)")
	cmd.Flags().Float64Var(&ratePerSec, "rate", 0, "max fetches per second, 0 = unlimited (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// parseRounds reads "index hash" lines. Hashes are validated later by the
// verifier so that one bad line is reported alongside the rest.
func parseRounds(data []byte) ([]vx.RoundInput, error) {
	var inputs []vx.RoundInput
	sc := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.FieldsFunc(text, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: want \"index hash\", got %q", line, text)
		}
		index, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid round index %q", line, fields[0])
		}
		inputs = append(inputs, vx.RoundInput{Index: index, Hash: fields[1]})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no rounds to verify")
	}
	return inputs, nil
}

func itemStatus(it vx.BatchItem) (string, string) {
	if it.Err != nil {
		kind := vx.KindOf(it.Err)
		if kind == 0 {
			return "error", it.Err.Error()
		}
		return kind.String(), it.Err.Error()
	}
	return string(it.Result.Status()), ""
}

func printBatch(p *printer, runID string, items []vx.BatchItem, s vx.BatchSummary) {
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROUND\tSTATUS\tDETAIL")
	for _, it := range items {
		status, detail := itemStatus(it)
		if it.Err == nil && it.Result.Verified() {
			status = p.good.Sprint(status)
		} else {
			status = p.bad.Sprint(status)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", it.Input.Index, status, detail)
	}
	_ = tw.Flush()

	var sb strings.Builder
	fmt.Fprintf(&sb, "run %s\n", runID)
	fmt.Fprintf(&sb, "verified:           %d/%d\n", s.Verified, s.Total)
	fmt.Fprintf(&sb, "message mismatch:   %d\n", s.MessageMismatch)
	fmt.Fprintf(&sb, "invalid signature:  %d\n", s.InvalidSignature)
	fmt.Fprintf(&sb, "failed:             %d\n", s.Failed)
	fmt.Fprintf(&sb, "no record yet:      %d\n", s.NoRecordYet)
	fmt.Fprintf(&sb, "errors:             %d", s.Errors)
	p.printf("\n%s\n", p.box.Render(sb.String()))
}

type batchReport struct {
	RunID   string          `json:"run_id"`
	Summary vx.BatchSummary `json:"summary"`
	Rounds  []roundReport   `json:"rounds"`
}

func writeBatchJSON(cmd *cobra.Command, runID string, items []vx.BatchItem, s vx.BatchSummary) error {
	rep := batchReport{RunID: runID, Summary: s, Rounds: make([]roundReport, 0, len(items))}
	for _, it := range items {
		rep.Rounds = append(rep.Rounds, newRoundReport(it.Input.Index, it.Input.Hash, "", it.Result, it.Err))
	}
	return writeJSON(cmd.OutOrStdout(), rep)
}
