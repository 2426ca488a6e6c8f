package ledger

import (
	"context"
	"fmt"
	"reflect"

	"github.com/yanun0323/decimal"
	"gorm.io/gorm/schema"
)

// decimalSerializerName is registered once and referenced from model.go's
// gorm tags so decimal.Decimal columns always round-trip through their
// exact string representation, rather than depending on whether
// decimal.Decimal itself implements driver.Valuer/sql.Scanner.
const decimalSerializerName = "decimalstring"

func init() {
	schema.RegisterSerializer(decimalSerializerName, decimalSerializer{})
}

type decimalSerializer struct{}

// Scan implements schema.SerializerInterface.
func (decimalSerializer) Scan(ctx context.Context, field *schema.Field, dst reflect.Value, dbValue interface{}) error {
	if dbValue == nil {
		field.ReflectValueOf(ctx, dst).Set(reflect.ValueOf(decimal.Zero))
		return nil
	}

	var s string
	switch v := dbValue.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("ledger: unsupported decimal column value %T", dbValue)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("ledger: parse decimal column %q: %w", s, err)
	}
	field.ReflectValueOf(ctx, dst).Set(reflect.ValueOf(d))
	return nil
}

// Value implements schema.SerializerValuerInterface.
func (decimalSerializer) Value(ctx context.Context, field *schema.Field, dst reflect.Value, fieldValue interface{}) (interface{}, error) {
	d, ok := fieldValue.(decimal.Decimal)
	if !ok {
		return nil, fmt.Errorf("ledger: unsupported decimal field value %T", fieldValue)
	}
	return d.String(), nil
}
