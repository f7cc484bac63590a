// Package audit runs every validation over one submission workbook and
// assembles the result the report, the API and the history store consume.
package audit

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/garyjia/oas-auditor/internal/address"
	"github.com/garyjia/oas-auditor/internal/columns"
	"github.com/garyjia/oas-auditor/internal/crosstab"
	"github.com/garyjia/oas-auditor/internal/headerfooter"
	"github.com/garyjia/oas-auditor/internal/models"
	"github.com/garyjia/oas-auditor/internal/reconcile"
	"github.com/garyjia/oas-auditor/internal/reference"
	"github.com/garyjia/oas-auditor/internal/rules"
	"github.com/garyjia/oas-auditor/internal/workbook"
)

// Dependencies are the collaborators an Auditor is built with. Nil fields
// fall back to the built-in defaults.
type Dependencies struct {
	CPT       *rules.CPTRules
	Registry  reference.Registry
	Phones    rules.PhoneValidator
	Addresses address.Normalizer
	Logger    *zap.Logger
	Clock     func() time.Time
}

// Auditor validates submission workbooks. It holds no per-run state and is
// safe for concurrent use.
type Auditor struct {
	opts      Options
	cpt       *rules.CPTRules
	registry  reference.Registry
	phones    rules.PhoneValidator
	addresses address.Normalizer
	logger    *zap.Logger
	now       func() time.Time
}

// NewAuditor creates an Auditor
func NewAuditor(opts Options, deps Dependencies) *Auditor {
	a := &Auditor{
		opts:      opts.withDefaults(),
		cpt:       deps.CPT,
		registry:  deps.Registry,
		phones:    deps.Phones,
		addresses: deps.Addresses,
		logger:    deps.Logger,
		now:       deps.Clock,
	}
	if a.cpt == nil {
		a.cpt = rules.NewCPTRules(reference.DefaultCPTConfig())
	}
	if a.registry == nil {
		a.registry = reference.NewSIDRegistry(nil)
	}
	if a.phones == nil {
		a.phones = rules.NewPhoneValidator()
	}
	if a.addresses == nil {
		a.addresses = address.NewNormalizer(address.DefaultCountry)
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

// Run opens and audits one workbook file
func (a *Auditor) Run(ctx context.Context, path string) (*models.Result, error) {
	wb, err := workbook.Open(path)
	if err != nil {
		return nil, &FatalError{Stage: StageOpen, Err: err}
	}
	return a.RunWorkbook(ctx, wb)
}

// RunWorkbook audits an already loaded workbook
func (a *Auditor) RunWorkbook(ctx context.Context, wb *workbook.Workbook) (*models.Result, error) {
	started := a.now()
	logger := a.logger.With(zap.String("file", wb.Path()))

	primary, ok := wb.Sheet(models.PrimarySheet)
	if !ok {
		return nil, &FatalError{Stage: StagePrimary, Err: ErrPrimarySheetMissing}
	}

	meta := headerfooter.Extract(primary.HeaderFooter())
	cols := columns.Resolve(primary.HeaderIndex())
	rec := rules.NewRecords(primary, cols, a.opts.BlankRows)

	counts, err := a.computeCounts(wb, rec, meta)
	if err != nil {
		return nil, &FatalError{Stage: StageCounts, Err: err}
	}

	fileName := filepath.Base(wb.Path())
	result := &models.Result{
		AuditID:          meta.AuditID,
		FilePath:         wb.Path(),
		FileName:         fileName,
		FileModified:     wb.Modified(),
		StartedAt:        started,
		ClientName:       rules.FileClientName(fileName),
		Metadata:         meta,
		Counts:           counts,
		SelectionPercent: reconcile.SelectionPercent(counts),
		MissingColumns:   cols.Missing(),
	}

	for _, name := range result.MissingColumns {
		result.Issues = append(result.Issues, models.NewWorkbookIssue(models.IssueMissingRequiredHeader,
			fmt.Sprintf("Required column %s not found in %s header", name, primary.Name())))
	}
	result.Issues = append(result.Issues, reconcile.MissingHeaderValues(meta)...)

	in := &Input{Workbook: wb, Records: rec, Metadata: meta, Counts: counts, Now: started}
	if err := a.runChecks(ctx, in, result); err != nil {
		return nil, err
	}

	result.CompletedAt = a.now()
	logger.Info("Audit completed",
		zap.String("audit_id", result.AuditID),
		zap.Int("issues", len(result.Issues)),
		zap.Duration("elapsed", result.CompletedAt.Sub(started)),
	)
	return result, nil
}

// computeCounts gathers the header totals and the row and tab tallies
func (a *Auditor) computeCounts(wb *workbook.Workbook, rec rules.Records, meta models.Metadata) (counts models.AggregateCounts, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrCountFailed, r)
		}
	}()

	counts.PatientsSubmitted = meta.PatientsSubmitted
	counts.EligiblePatients = meta.EligiblePatients
	counts.SampleSize = meta.SampleSize

	cols := rec.Columns()
	if cols.Has(columns.CMSIndicator, columns.EM) {
		reconcile.CountContacts(rec.Sheet(), rec.Rows(), cols.Col(columns.CMSIndicator), cols.Col(columns.EM)).Apply(&counts)
	}
	if inel, ok := wb.Sheet(crosstab.SheetInel); ok {
		counts.InelCount = models.IntPtr(crosstab.InelCount(inel))
	}
	if frame, ok := wb.Sheet(crosstab.SheetFrame); ok {
		counts.FrameInelCount = models.IntPtr(crosstab.FindFrameInelCount(frame, a.opts.Frame))
	}
	return counts, nil
}

type checkRun struct {
	findings   Findings
	outcome    models.CheckOutcome
	missingTab []string
}

// runChecks runs the checks concurrently and merges their findings in
// declaration order
func (a *Auditor) runChecks(ctx context.Context, in *Input, result *models.Result) error {
	checks := a.checks()
	runs := make([]checkRun, len(checks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Workers)
	for i, check := range checks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			runs[i] = a.runCheck(gctx, check, in)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	reportedTabs := make(map[string]bool)
	for _, run := range runs {
		for _, sheet := range run.missingTab {
			if reportedTabs[sheet] {
				continue
			}
			reportedTabs[sheet] = true
			result.Issues = append(result.Issues, models.NewWorkbookIssue(models.IssueTabMissing, sheet+" tab missing"))
		}
		result.Issues = append(result.Issues, run.findings.Issues...)
		result.Checks = append(result.Checks, run.outcome)

		f := run.findings
		result.Addresses = append(result.Addresses, f.Addresses...)
		result.IneligibleCPT = append(result.IneligibleCPT, f.IneligibleCPT...)
		if f.ServiceDates != nil {
			result.ServiceDates = f.ServiceDates
		}
		if f.SIDPrefix != "" {
			result.SIDPrefix = f.SIDPrefix
		}
		if f.RegistryName != "" {
			result.RegistryName = f.RegistryName
			result.RegistryMatch = f.RegistryMatch
			result.ClientName = f.RegistryName
		}
	}
	return nil
}

// runCheck runs one check, turning missing capabilities into a skip and a
// failure or panic into a "Check Not Evaluated" issue
func (a *Auditor) runCheck(ctx context.Context, check Check, in *Input) (run checkRun) {
	missingTabs := absentSheets(in.Workbook, check.Sheets)
	missingSoft := absentSheets(in.Workbook, check.SoftSheets)
	missingCols := in.Records.Columns().Absent(check.Columns...)

	if len(missingTabs) > 0 || len(missingCols) > 0 {
		var detail []string
		if len(missingTabs) > 0 {
			detail = append(detail, "missing tab "+strings.Join(missingTabs, ", "))
		}
		if len(missingCols) > 0 {
			detail = append(detail, "missing column "+strings.Join(missingCols, ", "))
		}
		return checkRun{
			outcome:    models.CheckOutcome{Name: check.Name, Status: models.CheckSkipped, Detail: strings.Join(detail, "; ")},
			missingTab: append(missingTabs, missingSoft...),
		}
	}

	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("Check panicked", zap.String("check", check.Name), zap.Any("panic", r))
			run = notEvaluated(check.Name, fmt.Errorf("panic: %v", r))
			run.missingTab = missingSoft
		}
	}()

	findings, err := check.Run(ctx, in)
	if err != nil {
		a.logger.Error("Check failed", zap.String("check", check.Name), zap.Error(err))
		run = notEvaluated(check.Name, err)
		run.missingTab = missingSoft
		return run
	}

	outcome := models.OutcomeFor(check.Name, len(findings.Issues))
	if findings.Outcome != nil {
		outcome = *findings.Outcome
	}
	if len(missingSoft) > 0 {
		note := "counted 0 for missing tab " + strings.Join(missingSoft, ", ")
		if outcome.Detail == "" {
			outcome.Detail = note
		} else {
			outcome.Detail += "; " + note
		}
	}
	return checkRun{findings: findings, outcome: outcome, missingTab: missingSoft}
}

func absentSheets(wb *workbook.Workbook, names []string) []string {
	var missing []string
	for _, name := range names {
		if _, ok := wb.Sheet(name); !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

func notEvaluated(name string, err error) checkRun {
	return checkRun{
		findings: Findings{Issues: []models.Issue{models.NewWorkbookIssue(models.IssueCheckNotEvaluated,
			fmt.Sprintf("%s: %v", name, err))}},
		outcome: models.CheckOutcome{Name: name, Status: models.CheckError, Detail: err.Error()},
	}
}
