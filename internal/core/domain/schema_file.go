package domain

// SchemaFile is an Avro source file discovered by the scanner.
type SchemaFile struct {
	Path   string
	Format Format
}

// NewSchemaFile creates a SchemaFile, inferring the format from the extension.
func NewSchemaFile(path string) SchemaFile {
	return SchemaFile{Path: path, Format: FormatFromPath(path)}
}

// ScanResult groups the files found under one source root by format.
// Each slice keeps discovery order.
type ScanResult struct {
	Root     string
	IDL      []SchemaFile
	Flat     []SchemaFile
	Protocol []SchemaFile
}

// Files returns the files of the given format.
func (r ScanResult) Files(f Format) []SchemaFile {
	switch f {
	case FormatIDL:
		return r.IDL
	case FormatFlatSchema:
		return r.Flat
	case FormatProtocol:
		return r.Protocol
	default:
		return nil
	}
}

// All returns every discovered file in compile order.
func (r ScanResult) All() []SchemaFile {
	all := make([]SchemaFile, 0, len(r.IDL)+len(r.Flat)+len(r.Protocol))
	for _, f := range CompileOrder {
		all = append(all, r.Files(f)...)
	}
	return all
}

// Add appends a file to the slice matching its format. Unknown formats are ignored.
func (r *ScanResult) Add(file SchemaFile) {
	switch file.Format {
	case FormatIDL:
		r.IDL = append(r.IDL, file)
	case FormatFlatSchema:
		r.Flat = append(r.Flat, file)
	case FormatProtocol:
		r.Protocol = append(r.Protocol, file)
	case FormatUnknown:
	}
}
