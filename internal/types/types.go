package types

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// DataType is the declared type of a predicate literal. It is deliberately
// coarser than the physical column types of the file: every integer width
// maps to Long, both float widths to Float, and so on.
type DataType uint8

const (
	TypeLong DataType = iota
	TypeFloat
	TypeString
	TypeDate      // days since the unix epoch
	TypeDecimal   // arbitrary precision, scale preserved
	TypeTimestamp // milliseconds since the unix epoch
	TypeBoolean
)

// TypeInfo holds metadata about a data type.
type TypeInfo struct {
	Type DataType
	Name string
	// GoType names the canonical Go representation of a coerced value.
	GoType string
}

var typeInfoList = []TypeInfo{
	{TypeLong, "LONG", "int64"},
	{TypeFloat, "FLOAT", "float64"},
	{TypeString, "STRING", "string"},
	{TypeDate, "DATE", "types.Date"},
	{TypeDecimal, "DECIMAL", "*apd.Decimal"},
	{TypeTimestamp, "TIMESTAMP", "types.Timestamp"},
	{TypeBoolean, "BOOLEAN", "bool"},
}

// TypeInfoMap maps DataType to its TypeInfo.
var TypeInfoMap map[DataType]TypeInfo

// typeNameMap maps lowercase type name to DataType for parsing.
var typeNameMap map[string]DataType

func init() {
	TypeInfoMap = make(map[DataType]TypeInfo, len(typeInfoList))
	typeNameMap = make(map[string]DataType, len(typeInfoList))
	for _, ti := range typeInfoList {
		TypeInfoMap[ti.Type] = ti
		typeNameMap[strings.ToLower(ti.Name)] = ti.Type
	}
	// Aliases accepted from predicate files.
	typeNameMap["int"] = TypeLong
	typeNameMap["bigint"] = TypeLong
	typeNameMap["double"] = TypeFloat
	typeNameMap["bool"] = TypeBoolean
}

// ParseDataType converts a type name string (case-insensitive) to DataType.
func ParseDataType(name string) (DataType, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	dt, ok := typeNameMap[n]
	if !ok {
		return 0, errors.Newf("unknown data type: %s", name)
	}
	return dt, nil
}

// Name returns the string name of the DataType.
func (dt DataType) Name() string {
	if ti, ok := TypeInfoMap[dt]; ok {
		return ti.Name
	}
	return "Unknown"
}

func (dt DataType) String() string { return dt.Name() }

// IsNumeric returns true for types whose values order numerically.
func (dt DataType) IsNumeric() bool {
	switch dt {
	case TypeLong, TypeFloat, TypeDecimal:
		return true
	}
	return false
}

// MarshalText renders the type by name so it can be used in YAML and JSON.
func (dt DataType) MarshalText() ([]byte, error) {
	if _, ok := TypeInfoMap[dt]; !ok {
		return nil, errors.Newf("unknown data type: %d", dt)
	}
	return []byte(dt.Name()), nil
}

// UnmarshalText parses a type name.
func (dt *DataType) UnmarshalText(text []byte) error {
	parsed, err := ParseDataType(string(text))
	if err != nil {
		return err
	}
	*dt = parsed
	return nil
}
