// Package batch reads patch batches.
//
// A batch is a CSV document with one record per row and the columns
//
//	service_area_code, phone_number, preferences, opt_status, phone_type
//
// The first row is a header and is skipped unless the reader is told otherwise.
// Rows that cannot be read (wrong number of fields, non-numeric service area
// code or phone type) are returned as *RowError so the caller can reject the
// row and keep going.
package batch
