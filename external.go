package nativecol

import (
	"bytes"
	"io"
	"mime/multipart"

	"github.com/blackhowling/nativecol/types"
)

// ExternalTable is one ad-hoc read-only table sent alongside a query as
// multipart form data (spec's GLOSSARY "External data").
type ExternalTable struct {
	Name    string
	Columns []string
	Types   []*types.Descriptor
	Data    io.Reader // native-format column bytes for this table
}

// EncodeExternalData multipart-encodes tables per spec §6's "multipart for
// external-data". Each part's Content-Disposition name and filename are the
// table's name and the part body is its native-format bytes; the table's
// structure is not in the part (see StructureParam). Returns the encoded body and the Content-Type header value
// (including the boundary) to set on the request.
func EncodeExternalData(tables []ExternalTable) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, t := range tables {
		part, err := w.CreateFormFile(t.Name, t.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, t.Data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// StructureParam renders a table's `name type, name type, ...` structure
// string, the value the server expects for the `<name>_structure` query
// parameter that accompanies each external-data part.
func StructureParam(t ExternalTable) string {
	var buf bytes.Buffer
	for i, name := range t.Columns {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(name)
		buf.WriteByte(' ')
		buf.WriteString(t.Types[i].CanonicalName())
	}
	return buf.String()
}
