package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/complaint-register/api/internal/complaint"
)

type Mode string

const (
	ModeDryRun Mode = "dry_run"
	ModeApply  Mode = "apply"
)

func ParseMode(value string) (Mode, error) {
	switch mode := Mode(strings.ToLower(strings.TrimSpace(value))); mode {
	case "":
		return ModeApply, nil
	case ModeDryRun, ModeApply:
		return mode, nil
	default:
		return "", fmt.Errorf("mode must be %s or %s", ModeDryRun, ModeApply)
	}
}

const (
	SeverityError = "error"
	SeverityWarn  = "warn"
	SeverityInfo  = "info"

	ResultCreated = "created"
	ResultSkipped = "skipped"
	ResultError   = "error"
)

type RowOutcome struct {
	RowNumber int               `json:"rowNumber"`
	Severity  string            `json:"severity"`
	Result    string            `json:"result"`
	Serial    string            `json:"serial,omitempty"`
	Field     *string           `json:"field,omitempty"`
	Message   string            `json:"message"`
	Issues    []complaint.Issue `json:"issues,omitempty"`
}

type Summary struct {
	RowsTotal   int `json:"rowsTotal"`
	RowsCreated int `json:"rowsCreated"`
	RowsSkipped int `json:"rowsSkipped"`
	RowsError   int `json:"rowsError"`
}

type Report struct {
	Mode           Mode         `json:"mode"`
	Filename       string       `json:"filename,omitempty"`
	Summary        Summary      `json:"summary"`
	IgnoredColumns []string     `json:"ignoredColumns,omitempty"`
	Rows           []RowOutcome `json:"rows"`
}

// Saver persists mapped rows; *complaint.Service satisfies it.
type Saver interface {
	Create(ctx context.Context, rec complaint.Record) (complaint.Record, error)
	CreateWithSerial(ctx context.Context, rec complaint.Record) error
	Get(ctx context.Context, serial string) (complaint.Record, error)
}

type Reconciler struct {
	mapper  complaint.Mapper
	saver   Saver
	logger  *slog.Logger
	maxRows int
	tempDir string
}

type Options struct {
	MaxRows int
	TempDir string
}

func NewReconciler(mapper complaint.Mapper, saver Saver, logger *slog.Logger, opts Options) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{mapper: mapper, saver: saver, logger: logger, maxRows: opts.MaxRows, tempDir: opts.TempDir}
}

// ImportFile spools src to a temporary file, reconciles it and removes the
// temporary file before returning.
func (rc *Reconciler) ImportFile(ctx context.Context, src io.Reader, filename string, mode Mode) (Report, error) {
	if !SupportedExtension(filename) {
		return Report{}, fmt.Errorf("%w: unsupported file type %q", ErrInvalidFile, filepath.Ext(filename))
	}
	if rc.tempDir != "" {
		if err := os.MkdirAll(rc.tempDir, 0o755); err != nil {
			return Report{}, fmt.Errorf("create temp dir: %w", err)
		}
	}
	tmp, err := os.CreateTemp(rc.tempDir, "import-*"+strings.ToLower(filepath.Ext(filename)))
	if err != nil {
		return Report{}, fmt.Errorf("create temp file: %w", err)
	}
	path := tmp.Name()
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			rc.logger.Warn("import_temp_remove_failed", "path", path, "error", err)
		}
	}()

	_, copyErr := io.Copy(tmp, src)
	closeErr := tmp.Close()
	if copyErr != nil {
		return Report{}, fmt.Errorf("spool upload: %w", copyErr)
	}
	if closeErr != nil {
		return Report{}, fmt.Errorf("spool upload: %w", closeErr)
	}

	f, err := os.Open(path)
	if err != nil {
		return Report{}, fmt.Errorf("reopen upload: %w", err)
	}
	sheet, err := ReadFile(f, filename)
	_ = f.Close()
	if err != nil {
		return Report{}, err
	}

	report, err := rc.Run(ctx, sheet, mode)
	report.Filename = filename
	return report, err
}

// Run maps and persists every non-blank row independently. A failing row is
// reported and the remaining rows are still processed.
func (rc *Reconciler) Run(ctx context.Context, sheet Sheet, mode Mode) (Report, error) {
	report := Report{Mode: mode, Rows: []RowOutcome{}}

	fields := make([]string, len(sheet.Headers))
	recognised := 0
	for i, header := range sheet.Headers {
		field, ok := complaint.SheetField(header)
		if !ok {
			if header != "" {
				report.IgnoredColumns = append(report.IgnoredColumns, header)
			}
			continue
		}
		fields[i] = field
		recognised++
	}
	if recognised == 0 {
		return report, fmt.Errorf("%w: no recognised columns in header row", ErrInvalidFile)
	}
	if rc.maxRows > 0 && len(sheet.Rows) > rc.maxRows {
		return report, fmt.Errorf("%w: %d rows exceeds the limit of %d", ErrInvalidFile, len(sheet.Rows), rc.maxRows)
	}

	seen := map[string]int{}
	for _, row := range sheet.Rows {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if row.blank() {
			continue
		}
		report.Summary.RowsTotal++

		values := map[string]string{}
		for i, cell := range row.Cells {
			if i < len(fields) && fields[i] != "" {
				values[fields[i]] = cell
			}
		}

		outcome := rc.reconcileRow(ctx, row.Number, values, mode, seen)
		switch outcome.Result {
		case ResultCreated:
			report.Summary.RowsCreated++
		case ResultSkipped:
			report.Summary.RowsSkipped++
		default:
			report.Summary.RowsError++
		}
		report.Rows = append(report.Rows, outcome)
	}

	rc.logger.Info("import_completed",
		"mode", mode,
		"rows_total", report.Summary.RowsTotal,
		"rows_created", report.Summary.RowsCreated,
		"rows_skipped", report.Summary.RowsSkipped,
		"rows_error", report.Summary.RowsError,
	)
	return report, nil
}

func (rc *Reconciler) reconcileRow(ctx context.Context, rowNumber int, values map[string]string, mode Mode, seen map[string]int) RowOutcome {
	rec, issues := rc.mapper.FromSheetRow(values)
	outcome := RowOutcome{RowNumber: rowNumber, Serial: rec.Serial, Issues: issues, Severity: SeverityInfo}
	if len(issues) > 0 {
		outcome.Severity = SeverityWarn
	}

	if rec.Serial != "" {
		if first, dup := seen[rec.Serial]; dup {
			return skipped(outcome, fmt.Sprintf("serial %s already appears on row %d", rec.Serial, first))
		}
		seen[rec.Serial] = rowNumber
	}

	if mode == ModeDryRun {
		if rec.Serial != "" {
			_, err := rc.saver.Get(ctx, rec.Serial)
			switch {
			case err == nil:
				return skipped(outcome, fmt.Sprintf("serial %s already exists", rec.Serial))
			case !errors.Is(err, complaint.ErrNotFound):
				return failed(rc.logger, outcome, err)
			}
		}
		outcome.Result = ResultCreated
		outcome.Message = withIssues("would create", issues)
		return outcome
	}

	if rec.Serial != "" {
		if err := rc.saver.CreateWithSerial(ctx, rec); err != nil {
			if errors.Is(err, complaint.ErrDuplicateSerial) {
				return skipped(outcome, fmt.Sprintf("serial %s already exists", rec.Serial))
			}
			return failed(rc.logger, outcome, err)
		}
	} else {
		created, err := rc.saver.Create(ctx, rec)
		if err != nil {
			return failed(rc.logger, outcome, err)
		}
		outcome.Serial = created.Serial
	}
	outcome.Result = ResultCreated
	outcome.Message = withIssues("created", issues)
	return outcome
}

func skipped(outcome RowOutcome, message string) RowOutcome {
	field := "serial"
	outcome.Result = ResultSkipped
	outcome.Severity = SeverityWarn
	outcome.Field = &field
	outcome.Message = message
	return outcome
}

func failed(logger *slog.Logger, outcome RowOutcome, err error) RowOutcome {
	logger.Error("import_row_failed", "row", outcome.RowNumber, "serial", outcome.Serial, "error", err)
	outcome.Result = ResultError
	outcome.Severity = SeverityError
	outcome.Message = "failed to save row"
	return outcome
}

func withIssues(message string, issues []complaint.Issue) string {
	if len(issues) == 0 {
		return message
	}
	parts := make([]string, 0, len(issues))
	for _, issue := range issues {
		parts = append(parts, fmt.Sprintf("%s: %s", complaint.SheetHeader(issue.Field), issue.Message))
	}
	return message + " with warnings (" + strings.Join(parts, "; ") + ")"
}
