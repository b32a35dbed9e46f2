package datatable

import "fmt"

// Messages holds every user-facing string of the presentation shell.
type Messages struct {
	ResultsPerPage   string
	Columns          string
	Previous         string
	Next             string
	NoResults        string
	ResultsRange     string // format with start, end, total
	EmptyTitle       string
	EmptyDescription string
}

// DefaultMessages returns the Spanish strings used by the socios screens.
func DefaultMessages() Messages {
	return Messages{
		ResultsPerPage:   "Resultados por página",
		Columns:          "Columnas",
		Previous:         "Anterior",
		Next:             "Siguiente",
		NoResults:        "No hay resultados.",
		ResultsRange:     "%d-%d de %d resultados.",
		EmptyTitle:       "No hay datos para mostrar",
		EmptyDescription: "Ajusta tus filtros o añade nuevos registros para ver la información aquí.",
	}
}

// RowRange returns the 1-based first and last row numbers shown on a page.
// Both are 0 when there are no results.
func RowRange(total, pageIndex, pageSize int) (start, end int) {
	if total <= 0 {
		return 0, 0
	}
	start = pageIndex*pageSize + 1
	end = min(start+pageSize-1, total)
	return start, end
}

// Caption renders the results range, e.g. "21-25 de 25 resultados.".
func Caption(total, pageIndex, pageSize int, m Messages) string {
	if total <= 0 {
		return m.NoResults
	}
	start, end := RowRange(total, pageIndex, pageSize)
	return fmt.Sprintf(m.ResultsRange, start, end, total)
}

// CanPreviousPage reports whether a page exists before pageIndex.
func CanPreviousPage(pageIndex int) bool {
	return pageIndex > 0
}

// CanNextPage reports whether a page exists after pageIndex.
func CanNextPage(total, pageIndex, pageSize int) bool {
	return pageSize > 0 && (pageIndex+1)*pageSize < total
}
