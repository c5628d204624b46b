// Package query builds the parameterized SQL behind the portal search.
//
// A search is described by a sparse Criteria value: a condition and a cell
// type (always required), plus optional filters and output fields spread over
// four linked entity families:
//   - genes (and their pathways)
//   - differential expression (DE) results
//   - cis-regulatory elements (CREs)
//   - transcription factors (TFs), reachable only through CREs
//
// Build turns Criteria into a single SELECT DISTINCT statement with only the
// joins the criteria needs. User input never ends up in the SQL text: every
// value is bound as a placeholder argument and every selectable column comes
// from a fixed catalog.
package query
