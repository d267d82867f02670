package csvimport

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// FieldType represents the expected type of a field
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeInt     FieldType = "int"
	TypeDecimal FieldType = "decimal"
)

// FieldRule defines validation rules for a column
type FieldRule struct {
	Column    string
	Type      FieldType
	Required  bool
	MaxLength int
	MinValue  *decimal.Decimal // inclusive
	Below     *decimal.Decimal // exclusive upper bound
}

// FieldRuleBuilder helps build field rules fluently
type FieldRuleBuilder struct {
	rule FieldRule
}

// Field creates a new field rule builder
func Field(column string) *FieldRuleBuilder {
	return &FieldRuleBuilder{rule: FieldRule{Column: column, Type: TypeString}}
}

// Required marks the field as required
func (b *FieldRuleBuilder) Required() *FieldRuleBuilder {
	b.rule.Required = true
	return b
}

// Int sets the field type to integer
func (b *FieldRuleBuilder) Int() *FieldRuleBuilder {
	b.rule.Type = TypeInt
	return b
}

// Decimal sets the field type to decimal
func (b *FieldRuleBuilder) Decimal() *FieldRuleBuilder {
	b.rule.Type = TypeDecimal
	return b
}

// MaxLength sets the maximum length in characters
func (b *FieldRuleBuilder) MaxLength(n int) *FieldRuleBuilder {
	b.rule.MaxLength = n
	return b
}

// MinValue sets the inclusive minimum numeric value
func (b *FieldRuleBuilder) MinValue(v decimal.Decimal) *FieldRuleBuilder {
	b.rule.MinValue = &v
	return b
}

// Below sets an exclusive maximum numeric value
func (b *FieldRuleBuilder) Below(v decimal.Decimal) *FieldRuleBuilder {
	b.rule.Below = &v
	return b
}

// Build returns the built field rule
func (b *FieldRuleBuilder) Build() FieldRule {
	return b.rule
}

// FieldValidator checks rows against a fixed rule set and records failures
type FieldValidator struct {
	rules  []FieldRule
	errors *ErrorCollection
}

// NewFieldValidator creates a validator. Rules are checked in the given order.
func NewFieldValidator(rules []FieldRule, errs *ErrorCollection) *FieldValidator {
	return &FieldValidator{rules: rules, errors: errs}
}

// ValidateRow validates all fields of row and reports whether it passed
func (v *FieldValidator) ValidateRow(row *Row) bool {
	ok := true
	for _, rule := range v.rules {
		if err := v.validateField(row, rule); err != nil {
			v.errors.Add(*err)
			ok = false
		}
	}
	return ok
}

func (v *FieldValidator) validateField(row *Row, rule FieldRule) *RowError {
	value := row.Get(rule.Column)
	if value == "" {
		if rule.Required {
			return &RowError{Row: row.LineNumber, Column: rule.Column, Code: ErrCodeImportRequiredField,
				Message: fmt.Sprintf("field '%s' is required", rule.Column)}
		}
		return nil
	}

	if rule.MaxLength > 0 && utf8.RuneCountInString(value) > rule.MaxLength {
		return &RowError{Row: row.LineNumber, Column: rule.Column, Code: ErrCodeImportInvalidLength,
			Message: fmt.Sprintf("length must be at most %d", rule.MaxLength)}
	}

	var number decimal.Decimal
	switch rule.Type {
	case TypeString:
		return nil
	case TypeInt:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return &RowError{Row: row.LineNumber, Column: rule.Column, Code: ErrCodeImportInvalidType,
				Message: "expected int", Value: value}
		}
		number = decimal.NewFromInt(n)
	case TypeDecimal:
		d, err := decimal.NewFromString(value)
		if err != nil {
			return &RowError{Row: row.LineNumber, Column: rule.Column, Code: ErrCodeImportInvalidType,
				Message: "expected decimal", Value: value}
		}
		number = d
	}

	if rule.MinValue != nil && number.LessThan(*rule.MinValue) {
		return &RowError{Row: row.LineNumber, Column: rule.Column, Code: ErrCodeImportInvalidRange,
			Message: fmt.Sprintf("value must be at least %s", rule.MinValue.String()), Value: value}
	}
	if rule.Below != nil && number.GreaterThanOrEqual(*rule.Below) {
		return &RowError{Row: row.LineNumber, Column: rule.Column, Code: ErrCodeImportInvalidRange,
			Message: fmt.Sprintf("value must be below %s", rule.Below.String()), Value: value}
	}
	return nil
}
