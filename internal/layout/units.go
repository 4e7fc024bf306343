// internal/layout/units.go
package layout

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidLength is returned when a length string cannot be parsed
var ErrInvalidLength = errors.New("invalid length")

// Unit identifies how a Length resolves to pixels
type Unit int

const (
	UnitPx      Unit = iota
	UnitPercent      // relative to container width
	UnitRem          // relative to root font size
	UnitEm           // relative to table font size
	UnitAuto         // no fixed size, column is flexible
)

// String returns the CSS-like suffix for the unit
func (u Unit) String() string {
	switch u {
	case UnitPx:
		return "px"
	case UnitPercent:
		return "%"
	case UnitRem:
		return "rem"
	case UnitEm:
		return "em"
	case UnitAuto:
		return "auto"
	default:
		return "?"
	}
}

// Length is a width or height in one of the supported units
type Length struct {
	Value float64
	Unit  Unit
}

// Px returns a pixel length
func Px(v float64) Length { return Length{Value: v, Unit: UnitPx} }

// Percent returns a length relative to the container width
func Percent(v float64) Length { return Length{Value: v, Unit: UnitPercent} }

// Rem returns a length relative to the root font size
func Rem(v float64) Length { return Length{Value: v, Unit: UnitRem} }

// Em returns a length relative to the table font size
func Em(v float64) Length { return Length{Value: v, Unit: UnitEm} }

// Auto returns the flexible sentinel length
func Auto() Length { return Length{Unit: UnitAuto} }

// IsAuto reports whether the length is the auto sentinel
func (l Length) IsAuto() bool { return l.Unit == UnitAuto }

// String formats the length the way ParseLength accepts it
func (l Length) String() string {
	if l.Unit == UnitAuto {
		return "auto"
	}
	return strconv.FormatFloat(l.Value, 'f', -1, 64) + l.Unit.String()
}

// ParseLength parses "120px", "25%", "3rem", "1.5em", "auto" or a bare
// number (pixels).
func ParseLength(s string) (Length, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return Length{}, fmt.Errorf("%w: empty", ErrInvalidLength)
	}
	if v == "auto" {
		return Auto(), nil
	}

	unit := UnitPx
	num := v
	switch {
	case strings.HasSuffix(v, "rem"):
		unit, num = UnitRem, strings.TrimSuffix(v, "rem")
	case strings.HasSuffix(v, "em"):
		unit, num = UnitEm, strings.TrimSuffix(v, "em")
	case strings.HasSuffix(v, "px"):
		unit, num = UnitPx, strings.TrimSuffix(v, "px")
	case strings.HasSuffix(v, "%"):
		unit, num = UnitPercent, strings.TrimSuffix(v, "%")
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil {
		return Length{}, fmt.Errorf("%w: %q", ErrInvalidLength, s)
	}
	if f < 0 {
		return Length{}, fmt.Errorf("%w: negative %q", ErrInvalidLength, s)
	}
	return Length{Value: f, Unit: unit}, nil
}

// MustParseLength is ParseLength for literals known to be valid
func MustParseLength(s string) Length {
	l, err := ParseLength(s)
	if err != nil {
		panic(err)
	}
	return l
}

// Metrics carries the references relative units resolve against
type Metrics struct {
	ContainerWidth float64
	RootFontSize   float64
	TableFontSize  float64
}

// Resolve converts the length to pixels. The second return value is false
// for auto, which has no pixel size.
func (l Length) Resolve(m Metrics) (float64, bool) {
	switch l.Unit {
	case UnitAuto:
		return 0, false
	case UnitPercent:
		return l.Value / 100 * m.ContainerWidth, true
	case UnitRem:
		return l.Value * m.RootFontSize, true
	case UnitEm:
		return l.Value * m.TableFontSize, true
	default:
		return l.Value, true
	}
}
