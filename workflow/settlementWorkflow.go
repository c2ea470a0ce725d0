package workflow

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/cortes_backend/config"
	"bitbucket.org/mmdatafocus/cortes_backend/dbase"
	"bitbucket.org/mmdatafocus/cortes_backend/docref"
	"bitbucket.org/mmdatafocus/cortes_backend/models"
	"bitbucket.org/mmdatafocus/cortes_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ErrRunCancelled is returned when a cooperative cancel lands between scan
// phases. A cancelled run publishes no partial results.
var ErrRunCancelled = errors.New("settlement run cancelled")

// SettlementInput carries the table locations and codepage for one run.
// Each run opens its own read handles, so runs for different branch/date
// pairs can execute concurrently.
type SettlementInput struct {
	CutsPath      string
	RegistersPath string
	LedgerPath    string
	Codepage      dbase.Codepage
}

// InputFromConfig builds a SettlementInput from the environment-configured
// paths and codepage candidates.
func InputFromConfig() SettlementInput {
	p := config.GetTablePaths()
	return SettlementInput{
		CutsPath:      p.Cuts,
		RegistersPath: p.Registers,
		LedgerPath:    p.Ledger,
		Codepage:      dbase.CodepageFromCandidates(config.CodepageCandidates()),
	}
}

func (in SettlementInput) validate() error {
	if in.CutsPath == "" {
		return fmt.Errorf("%w: cut table path is blank", utils.ErrConfigIncomplete)
	}
	if in.RegistersPath == "" {
		return fmt.Errorf("%w: register directory path is blank", utils.ErrConfigIncomplete)
	}
	if in.LedgerPath == "" {
		return fmt.Errorf("%w: ledger table path is blank", utils.ErrConfigIncomplete)
	}
	return nil
}

// runHooks lets the async run manager observe phase changes and request
// cooperative cancellation between phases.
type runHooks struct {
	cancelled func() bool
	phase     func(name string)
}

func (h *runHooks) enter(name string) error {
	if h == nil {
		return nil
	}
	if h.phase != nil {
		h.phase(name)
	}
	if h.cancelled != nil && h.cancelled() {
		return ErrRunCancelled
	}
	return nil
}

// ProcessSettlementWorkflow reconciles one branch's register cuts for one date
// against the legacy ledger:
//
//  1. resolve the branch's three series codes (unknown branch => empty series,
//     which matches nothing and yields an empty report by design);
//  2. collect the date's cuts, registers resolved; no cuts means the ledger is
//     not scanned at all;
//  3. collect the date's ledger documents for those series in one pass;
//  4. per cut, in encounter order: client invoices match directly on the
//     register text, global sales and returns match through the reference
//     lists decoded from the cut's blob cells; a cut with all-zero buckets
//     emits no row.
func ProcessSettlementWorkflow(logger *logrus.Logger, in SettlementInput, codec docref.Codec, branch string, date time.Time) (*models.SettlementResult, error) {
	return processSettlement(logger, in, codec, branch, date, nil)
}

func processSettlement(logger *logrus.Logger, in SettlementInput, codec docref.Codec, branch string, date time.Time, hooks *runHooks) (*models.SettlementResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	result := &models.SettlementResult{
		Branch: branch,
		Date:   utils.DisplayDate(date),
	}
	series := models.ResolveBranchSeries(branch)

	if err := hooks.enter("cuts"); err != nil {
		return nil, err
	}
	cuts, cutStats, err := CollectCuts(logger, in.CutsPath, in.RegistersPath, in.Codepage, date)
	if err != nil {
		return nil, err
	}
	result.Cuts = cutStats
	if len(cuts) == 0 {
		return result, nil
	}

	if err := hooks.enter("ledger"); err != nil {
		return nil, err
	}
	docs, docStats, err := CollectDocuments(logger, in.LedgerPath, in.Codepage, date, series.Codes())
	if err != nil {
		return nil, err
	}
	result.Docs = docStats

	if err := hooks.enter("join"); err != nil {
		return nil, err
	}

	// claimed maps a document's structural key to the first cut that matched
	// it through a reference list. A later claim is a data-quality flag, not
	// an engine error; it is counted and logged, never silently resolved.
	claimed := map[string]int{}

	for cutIdx, cut := range cuts {
		invoiced := decimal.Zero
		for _, d := range docs {
			if utils.FoldEquals(d.Series, series.Client) && utils.FoldEquals(d.RegisterText, cut.RegisterName) {
				invoiced = invoiced.Add(d.Total)
			}
		}

		globalSales := sumReferencedDocs(logger, docs, codec.Parse(cut.InvoicesBlob), series.Global, cutIdx, claimed, result)
		returned := sumReferencedDocs(logger, docs, codec.Parse(cut.ReturnsBlob), series.Returns, cutIdx, claimed, result)

		if invoiced.IsZero() && globalSales.IsZero() && returned.IsZero() {
			continue
		}
		result.Rows = append(result.Rows, models.SettlementRow{
			Date:         utils.DisplayDate(date),
			RegisterName: cut.RegisterName,
			Invoiced:     invoiced,
			Returned:     returned,
			GlobalSales:  globalSales,
			Total:        invoiced.Add(globalSales).Sub(returned),
		})
	}
	return result, nil
}

// sumReferencedDocs resolves one cut's reference list against the collected
// documents, pinned to one series (the branch's global or returns series).
// The structural key document_id+series+folio is expected to be unique in the
// ledger; the first match wins.
func sumReferencedDocs(logger *logrus.Logger, docs []models.DocumentRecord, refs []models.DocumentReference, series string, cutIdx int, claimed map[string]int, result *models.SettlementResult) decimal.Decimal {
	sum := decimal.Zero
	if series == "" {
		return sum
	}
	for _, ref := range refs {
		if !utils.FoldEquals(ref.Series, series) {
			continue
		}
		for _, d := range docs {
			if !utils.FoldEquals(d.Series, series) ||
				!utils.FoldEquals(d.DocumentID, ref.DocumentID) ||
				!utils.FoldEquals(d.Folio, ref.Folio) {
				continue
			}
			key := strings.ToUpper(strings.TrimSpace(d.DocumentID)) + "|" +
				strings.ToUpper(strings.TrimSpace(d.Series)) + "|" +
				strings.ToUpper(strings.TrimSpace(d.Folio))
			if firstCut, ok := claimed[key]; ok {
				if firstCut != cutIdx {
					result.MultiMatched++
					config.LogWarn(logger, "settlementWorkflow.go", "sumReferencedDocs", "document referenced by more than one cut", key)
				}
				break
			}
			claimed[key] = cutIdx
			sum = sum.Add(d.Total)
			break
		}
	}
	return sum
}
