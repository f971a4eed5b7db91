package utils

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/gagliardetto/solana-go"

	"github.com/iqbalbaharum/constant-product-pool/internal/types"
)

var searchOperators = map[string]struct{}{
	"=": {}, "!=": {}, "<": {}, "<=": {}, ">": {}, ">=": {}, "LIKE": {},
}

func replaceLastComma(str string, replacement string) string {
	lastCommaIndex := strings.LastIndex(str, ",")
	if lastCommaIndex != -1 {
		str = str[:lastCommaIndex] + replacement + str[lastCommaIndex+1:]
	}

	return str
}

// UnpackStruct returns the field values of s in declaration order. Public keys are
// rendered as base58 strings.
func UnpackStruct(s interface{}) []interface{} {
	val := reflect.ValueOf(s)
	if val.Kind() == reflect.Ptr {
		val = val.Elem() // Dereference pointer
	}

	var result []interface{}
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)

		if field.Kind() == reflect.Ptr {
			field = field.Elem() // Dereference pointer
		}

		fieldType := field.Type()

		if fieldType == reflect.TypeOf(solana.PublicKey{}) {
			result = append(result, field.Interface().(solana.PublicKey).String())
		} else {
			result = append(result, field.Interface())
		}

	}

	return result
}

// Columns returns the json tags of the struct pointed to by i.
func Columns(i any) []string {
	typ := reflect.TypeOf(i).Elem()

	columns := make([]string, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		columns = append(columns, typ.Field(i).Tag.Get("json"))
	}

	return columns
}

func BuildInsertQuery(i any) string {
	column := "("
	values := " VALUES ("

	for _, c := range Columns(i) {
		column += fmt.Sprintf("%s,", c)
		values += "?,"
	}

	column = replaceLastComma(column, ")")
	values = replaceLastComma(values, ")")

	return column + values
}

// BuildSearchQuery renders a SELECT of columns from tableName. Filter columns and operators
// are interpolated, so both are checked against columns and the known operators.
func BuildSearchQuery(tableName string, columns []string, filter types.MySQLFilter) (string, []any, error) {
	allowed := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		allowed[c] = struct{}{}
	}

	query := fmt.Sprintf(`SELECT %s FROM %s`, strings.Join(columns, ","), tableName)
	var values []any
	for idx, q := range filter.Query {
		if _, ok := allowed[q.Column]; !ok {
			return "", nil, fmt.Errorf("unknown column %q", q.Column)
		}
		op := strings.ToUpper(q.Op)
		if _, ok := searchOperators[op]; !ok {
			return "", nil, fmt.Errorf("unsupported operator %q", q.Op)
		}

		if idx == 0 {
			query += " WHERE "
		}

		query += fmt.Sprintf("%s %s ?", q.Column, op)
		values = append(values, q.Query)

		if idx < len(filter.Query)-1 {
			query += " AND "
		}
	}

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	return query, values, nil
}
