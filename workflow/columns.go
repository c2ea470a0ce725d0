package workflow

import "bitbucket.org/mmdatafocus/cortes_backend/config"

// Column names in the legacy tables of the reference deployment. DBF field
// names are capped at ten characters, hence the truncated spellings.
const (
	colCutDate     = "FECHA"
	colCutRegister = "NUMCAJA"
	colCutInvoices = "FACTURAS"
	colCutReturns  = "DEVOLUCIO"

	colRegisterID   = "NUMCAJA"
	colRegisterName = "DESCRIPCIO"

	colDocID       = "CIDDOCUM"
	colDocSeries   = "CSERIEDO"
	colDocFolio    = "CFOLIO"
	colDocDate     = "CFECHA"
	colDocTotal    = "CTOTAL"
	colDocRegister = "CRAZONSO"
)

// expectedColumns is what the path-validation screen checks for before an
// operator is allowed to save a table path.
var expectedColumns = map[config.TableKind][]string{
	config.TableCuts:      {colCutDate, colCutRegister, colCutInvoices, colCutReturns},
	config.TableRegisters: {colRegisterID, colRegisterName},
	config.TableLedger:    {colDocID, colDocSeries, colDocFolio, colDocDate, colDocTotal, colDocRegister},
}
