package audit

import (
	"context"
	"path/filepath"

	"github.com/garyjia/oas-auditor/internal/columns"
	"github.com/garyjia/oas-auditor/internal/crosstab"
	"github.com/garyjia/oas-auditor/internal/models"
	"github.com/garyjia/oas-auditor/internal/reconcile"
	"github.com/garyjia/oas-auditor/internal/rules"
)

// Check names shown in the report summary
const (
	CheckPOPCount        = "Submitted matches POP tab"
	CheckUploadCount     = "UPLOAD and OASCAPHS row counts match"
	CheckUploadValues    = "UPLOAD values match OASCAPHS"
	CheckEmailConsistent = "POP and UPLOAD emails agree"
	CheckInelFormatting  = "INEL tab REPEAT entries properly formatted"
	CheckSIDs            = "SIDs present and in order"
	CheckCategory        = "Surgical category matches CPT"
	CheckCPT             = "CPT codes eligible"
	CheckGender          = "Gender values valid"
	CheckServiceDates    = "Service dates valid and in one month"
	CheckAge             = "Reported patients are adults"
	CheckDOB             = "Dates of birth valid"
	CheckEmail           = "Email addresses valid"
	CheckTelephone       = "Telephone numbers valid"
	CheckLanguage        = "Survey languages valid"
	CheckEM              = "E/M consistent with CMS indicator"
	CheckPlaceholders    = "No placeholder patient names"
	CheckDuplicateMRN    = "No duplicate MRNs"
	CheckAddresses       = "Addresses valid"
)

// checks lists every validation in report order
func (a *Auditor) checks() []Check {
	return []Check{
		{
			Name:    reconcile.CheckSampleSize,
			Columns: []string{columns.CMSIndicator},
			Run: func(_ context.Context, in *Input) (Findings, error) {
				return withOutcome(reconcile.SampleSize(in.Counts))
			},
		},
		{
			Name:    reconcile.CheckEMTotal,
			Columns: []string{columns.CMSIndicator, columns.EM},
			Run: func(_ context.Context, in *Input) (Findings, error) {
				return withOutcome(reconcile.EMTotal(in.Counts))
			},
		},
		{
			Name:   CheckPOPCount,
			Sheets: []string{crosstab.SheetPOP},
			Run:    a.checkPOPCount,
		},
		{
			Name:   CheckUploadCount,
			Sheets: []string{crosstab.SheetUpload},
			Run: func(_ context.Context, in *Input) (Findings, error) {
				return issuesOnly(crosstab.CheckUploadCount(in.Sheet(crosstab.SheetUpload), in.Records.Sheet()))
			},
		},
		{
			Name:   CheckUploadValues,
			Sheets: []string{crosstab.SheetUpload},
			Run: func(_ context.Context, in *Input) (Findings, error) {
				return issuesOnly(crosstab.CompareUploadValues(in.Sheet(crosstab.SheetUpload), in.Records.Sheet()))
			},
		},
		{
			Name:   CheckEmailConsistent,
			Sheets: []string{crosstab.SheetPOP, crosstab.SheetUpload},
			Run: func(_ context.Context, in *Input) (Findings, error) {
				return issuesOnly(crosstab.CheckEmailConsistency(in.Sheet(crosstab.SheetPOP), in.Sheet(crosstab.SheetUpload)))
			},
		},
		{
			Name:       reconcile.CheckIneligibleMath,
			SoftSheets: []string{crosstab.SheetInel, crosstab.SheetFrame},
			Run: func(_ context.Context, in *Input) (Findings, error) {
				return withOutcome(reconcile.IneligibleMath(in.Counts))
			},
		},
		{
			Name:   CheckInelFormatting,
			Sheets: []string{crosstab.SheetInel},
			Run: func(_ context.Context, in *Input) (Findings, error) {
				return issuesOnly(crosstab.CheckInelFormatting(in.Sheet(crosstab.SheetInel)))
			},
		},
		{
			Name:    CheckSIDs,
			Columns: []string{columns.CMSIndicator, columns.SID},
			Run:     a.checkSIDs,
		},
		{
			Name:    CheckCategory,
			Columns: []string{columns.CPT, columns.SurgicalCategory},
			Run: func(_ context.Context, in *Input) (Findings, error) {
				return issuesOnly(rules.CheckSurgicalCategory(in.Records))
			},
		},
		{
			Name:    CheckCPT,
			Columns: []string{columns.CPT, columns.CMSIndicator},
			Run: func(_ context.Context, in *Input) (Findings, error) {
				issues, rows := a.cpt.CheckIneligibleCPT(in.Records)
				return Findings{Issues: issues, IneligibleCPT: rows}, nil
			},
		},
		{
			Name:    CheckGender,
			Columns: []string{columns.Gender},
			Run: func(_ context.Context, in *Input) (Findings, error) {
				return issuesOnly(rules.CheckGender(in.Records))
			},
		},
		{
			Name:    CheckServiceDates,
			Columns: []string{columns.ServiceDate},
			Run: func(_ context.Context, in *Input) (Findings, error) {
				issues, span := rules.CheckServiceDates(in.Records, in.Now)
				return Findings{Issues: issues, ServiceDates: span}, nil
			},
		},
		{
			Name:    CheckAge,
			Columns: []string{columns.Age, columns.CMSIndicator},
			Run: func(_ context.Context, in *Input) (Findings, error) {
				return issuesOnly(rules.CheckAge(in.Records, a.opts.MinAge))
			},
		},
		{
			Name:    CheckDOB,
			Columns: []string{columns.DOB},
			Run: func(_ context.Context, in *Input) (Findings, error) {
				return issuesOnly(rules.CheckDOB(in.Records, in.Now))
			},
		},
		{
			Name:    CheckEmail,
			Columns: []string{columns.EmailAddress},
			Run: func(_ context.Context, in *Input) (Findings, error) {
				return issuesOnly(rules.CheckEmail(in.Records))
			},
		},
		{
			Name:    CheckTelephone,
			Columns: []string{columns.Telephone},
			Run: func(_ context.Context, in *Input) (Findings, error) {
				return issuesOnly(rules.CheckTelephone(in.Records, a.phones))
			},
		},
		{
			Name:    CheckLanguage,
			Columns: []string{columns.SurveyLanguage},
			Run: func(_ context.Context, in *Input) (Findings, error) {
				return issuesOnly(rules.CheckSurveyLanguage(in.Records))
			},
		},
		{
			Name:    CheckEM,
			Columns: []string{columns.CMSIndicator, columns.EM},
			Run: func(_ context.Context, in *Input) (Findings, error) {
				return issuesOnly(rules.CheckEMConsistency(in.Records))
			},
		},
		{
			Name:    CheckPlaceholders,
			Columns: []string{columns.PatientName},
			Run: func(_ context.Context, in *Input) (Findings, error) {
				return issuesOnly(rules.CheckPlaceholderNames(in.Records))
			},
		},
		{
			Name:    CheckDuplicateMRN,
			Columns: []string{columns.MRN},
			Run: func(_ context.Context, in *Input) (Findings, error) {
				return issuesOnly(rules.CheckDuplicateMRN(in.Records))
			},
		},
		{
			Name:    CheckAddresses,
			Columns: []string{columns.Address1, columns.City, columns.State, columns.Zip},
			Run: func(_ context.Context, in *Input) (Findings, error) {
				issues, found := rules.CheckAddresses(in.Records, a.addresses)
				return Findings{Issues: issues, Addresses: found}, nil
			},
		},
	}
}

func (a *Auditor) checkPOPCount(_ context.Context, in *Input) (Findings, error) {
	submitted, ok := models.IntValue(in.Counts.PatientsSubmitted)
	if !ok {
		return withOutcome(nil, models.CheckOutcome{
			Name:   CheckPOPCount,
			Status: models.CheckSkipped,
			Detail: "SUBMITTED value unknown",
		})
	}

	opts := crosstab.POPCountOptions{Tolerance: a.opts.POPTolerance}
	if a.opts.POPNetOfHighlightedInel {
		if inel, found := in.Workbook.Sheet(crosstab.SheetInel); found {
			if highlighted, ok := crosstab.HighlightedInelRows(inel); ok {
				opts.HighlightedInel = highlighted
				opts.NetOfInel = true
			}
		}
	}
	return issuesOnly(crosstab.CheckPOPCount(in.Sheet(crosstab.SheetPOP), submitted, opts))
}

// checkSIDs runs the sequence scan, then looks the prefix up in the registry
func (a *Auditor) checkSIDs(_ context.Context, in *Input) (Findings, error) {
	seq := rules.CheckSIDSequence(in.Records, in.Metadata.HeaderSID)
	findings := Findings{Issues: seq.Issues, SIDPrefix: seq.Prefix}

	reg := rules.CheckSIDRegistry(seq.Prefix, a.registry, filepath.Base(in.Workbook.Path()))
	findings.Issues = append(findings.Issues, reg.Issues...)
	if reg.Registered {
		findings.RegistryName = reg.ClientName
		findings.RegistryMatch = reg.NameMatches
	}
	return findings, nil
}
