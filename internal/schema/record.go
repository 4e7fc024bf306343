package schema

import (
	"cmp"
	"encoding/hex"
	"fmt"
	"maps"
	"math"
	"math/big"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// PositionalKey is the column holding a row's sort-dependent position
const PositionalKey = "__oid"

// Record maps column names to parsed values
type Record map[string]any

// Clone returns a shallow copy of r
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return maps.Clone(r)
}

// Oid returns the positional id carried by the record
func (r Record) Oid() (int64, bool) {
	v, ok := r[PositionalKey].(int64)
	return v, ok
}

// Format renders a parsed value for display
func Format(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return val
	case BigInt:
		return val.Display
	case Decimal:
		return val.Display
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format(time.DateOnly)
		}
		return val.Format("2006-01-02 15:04:05")
	case []byte:
		return "\\x" + hex.EncodeToString(val)
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(val, 10)
	case map[string]any, []any:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	default:
		return fmt.Sprint(val)
	}
}

// rank orders values of different kinds: nil, bool, number, time, string,
// then everything else.
func rank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, BigInt, Decimal:
		return 2
	case time.Time:
		return 3
	case string:
		return 4
	default:
		return 5
	}
}

// decimalPrec keeps decimals of up to 38 significant digits distinct
const decimalPrec = 256

func toBigFloat(v any) *big.Float {
	switch n := v.(type) {
	case BigInt:
		if n.Value == nil {
			return new(big.Float)
		}
		return new(big.Float).SetInt(n.Value)
	case Decimal:
		if n.Value == nil {
			return new(big.Float)
		}
		return new(big.Float).SetPrec(decimalPrec).SetRat(n.Value)
	case int:
		return big.NewFloat(float64(n))
	case int8:
		return big.NewFloat(float64(n))
	case int16:
		return big.NewFloat(float64(n))
	case int32:
		return big.NewFloat(float64(n))
	case int64:
		return new(big.Float).SetInt64(n)
	case uint:
		return new(big.Float).SetUint64(uint64(n))
	case uint8:
		return big.NewFloat(float64(n))
	case uint16:
		return big.NewFloat(float64(n))
	case uint32:
		return big.NewFloat(float64(n))
	case uint64:
		return new(big.Float).SetUint64(n)
	case float32:
		return big.NewFloat(float64(n))
	case float64:
		return big.NewFloat(n)
	}
	return new(big.Float)
}

// Compare orders two parsed values. Values of different kinds order by
// kind; NaN orders before every other number.
func Compare(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch ra {
	case 0:
		return 0
	case 1:
		ab, bb := a.(bool), b.(bool)
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		default:
			return 1
		}
	case 2:
		if af, ok := a.(float64); ok {
			if bf, ok := b.(float64); ok {
				return cmp.Compare(af, bf)
			}
		}
		return compareNumbers(a, b)
	case 3:
		return a.(time.Time).Compare(b.(time.Time))
	case 4:
		return cmp.Compare(a.(string), b.(string))
	default:
		return cmp.Compare(Format(a), Format(b))
	}
}

func compareNumbers(a, b any) int {
	an, bn := isNaN(a), isNaN(b)
	switch {
	case an && bn:
		return 0
	case an:
		return -1
	case bn:
		return 1
	}
	return toBigFloat(a).Cmp(toBigFloat(b))
}

func isNaN(v any) bool {
	switch n := v.(type) {
	case float64:
		return math.IsNaN(n)
	case float32:
		return math.IsNaN(float64(n))
	}
	return false
}
