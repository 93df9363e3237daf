// Package report renders aggregate tables as rows of text. A row is a
// []string handed to a Writer; TSV and CSV writers put one row per line,
// and the XLSX writer fills one spreadsheet row per call. BarChart draws a
// length profile as an image.
package report
