package csvimport

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Product import columns
const (
	ColumnName        = "name"
	ColumnPrice       = "price"
	ColumnTags        = "tags"
	ColumnDescription = "description"
	ColumnStock       = "stock"
	ColumnDiscount    = "discount"
)

// DefaultMaxErrors caps the number of row errors kept per import
const DefaultMaxErrors = 100

// ProductRow is a validated product row
type ProductRow struct {
	Line        int
	Name        string
	Price       decimal.Decimal
	Tags        []string
	Description string
	Stock       int
	Discount    *decimal.Decimal
}

// ProductImport is the outcome of parsing a product file
type ProductImport struct {
	TotalRows int
	Rows      []ProductRow
	Errors    *ErrorCollection
}

// ProductRules returns the validation rules for product rows
func ProductRules() []FieldRule {
	return []FieldRule{
		Field(ColumnName).Required().MaxLength(200).Build(),
		Field(ColumnPrice).Required().Decimal().MinValue(decimal.Zero).Build(),
		Field(ColumnTags).MaxLength(1000).Build(),
		Field(ColumnDescription).MaxLength(2000).Build(),
		Field(ColumnStock).Int().MinValue(decimal.Zero).Build(),
		Field(ColumnDiscount).Decimal().MinValue(decimal.Zero).Below(decimal.NewFromInt(100)).Build(),
	}
}

// ParseProducts reads a product CSV. Each call uses its own parser.
// Invalid rows are reported in the returned error collection and do not
// stop the remaining rows from being parsed. A non-nil error means the file
// itself could not be read.
func ParseProducts(r io.Reader, maxErrors int) (*ProductImport, error) {
	if maxErrors <= 0 {
		maxErrors = DefaultMaxErrors
	}

	parser, err := NewCSVParser(r)
	if err != nil {
		return nil, err
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, err
	}
	if missing := parser.MissingHeaders(ColumnName, ColumnPrice); len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	result := &ProductImport{Errors: NewErrorCollection(maxErrors)}
	validator := NewFieldValidator(ProductRules(), result.Errors)

	for {
		row, err := parser.ReadRow()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			result.TotalRows++
			result.Errors.Add(RowError{
				Row:     parser.CurrentRow(),
				Code:    ErrCodeImportMalformedRow,
				Message: err.Error(),
			})
			continue
		}
		if row.IsEmpty() {
			continue
		}

		result.TotalRows++
		if !validator.ValidateRow(row) {
			continue
		}
		result.Rows = append(result.Rows, toProductRow(row))
	}

	return result, nil
}

// toProductRow converts a row that already passed ProductRules
func toProductRow(row *Row) ProductRow {
	out := ProductRow{
		Line:        row.LineNumber,
		Name:        row.Get(ColumnName),
		Price:       decimal.RequireFromString(row.Get(ColumnPrice)),
		Tags:        SplitTags(row.Get(ColumnTags)),
		Description: row.Get(ColumnDescription),
	}
	if v := row.Get(ColumnStock); v != "" {
		n, _ := strconv.Atoi(v)
		out.Stock = n
	}
	if v := row.Get(ColumnDiscount); v != "" {
		d := decimal.RequireFromString(v)
		out.Discount = &d
	}
	return out
}

// SplitTags splits a comma-separated tag cell
func SplitTags(cell string) []string {
	if strings.TrimSpace(cell) == "" {
		return nil
	}
	parts := strings.Split(cell, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}
