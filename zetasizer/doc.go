// Package zetasizer reads correlation exports of Malvern Zetasizer software
// into rheology measurements.
//
// An export is a header-less CSV file with one measurement record per row.
// Array-valued columns (correlation data, delay times, fit data) hold a
// quoted, comma-separated list of numbers. The column order depends on the
// export template; DefaultColumns matches the template shipped with this
// module.
//
// # Usage
//
//	exp, err := zetasizer.ReadFile("exported.csv")
//	m, err := exp.Measurement(0, nil, true)
package zetasizer
