package domain

import "path/filepath"

// Format identifies one of the supported Avro source formats.
type Format uint8

const (
	// FormatUnknown is returned for files that are not Avro sources.
	FormatUnknown Format = iota
	// FormatIDL is the textual interface description language (.avdl).
	FormatIDL
	// FormatFlatSchema is a JSON document declaring a single named type (.avsc).
	FormatFlatSchema
	// FormatProtocol is a JSON protocol document (.avpr).
	FormatProtocol
)

// Source file extensions. These are a compatibility contract and must not change.
const (
	ExtIDL        = ".avdl"
	ExtFlatSchema = ".avsc"
	ExtProtocol   = ".avpr"
)

// CompileOrder is the order in which formats are compiled within one source directory.
var CompileOrder = []Format{FormatIDL, FormatFlatSchema, FormatProtocol}

// FormatFromPath infers the format of a file from its extension. Matching is
// case-sensitive.
func FormatFromPath(path string) Format {
	switch filepath.Ext(path) {
	case ExtIDL:
		return FormatIDL
	case ExtFlatSchema:
		return FormatFlatSchema
	case ExtProtocol:
		return FormatProtocol
	default:
		return FormatUnknown
	}
}

// Extension returns the file extension of the format.
func (f Format) Extension() string {
	switch f {
	case FormatIDL:
		return ExtIDL
	case FormatFlatSchema:
		return ExtFlatSchema
	case FormatProtocol:
		return ExtProtocol
	default:
		return ""
	}
}

// String returns a short label for the format, used in logs and metric labels.
func (f Format) String() string {
	switch f {
	case FormatIDL:
		return "idl"
	case FormatFlatSchema:
		return "schema"
	case FormatProtocol:
		return "protocol"
	default:
		return "unknown"
	}
}
