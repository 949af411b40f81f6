package scan

import (
	"os"
	"strings"

	"github.com/richardlehane/mscfb"
	"github.com/richardlehane/msoleps"

	"github.com/consolida-dev/consolida/pkg/consolida/models"
)

// checkLegacy classifies a .xls candidate. Legacy OLE workbooks are
// reported as unsupported rather than corrupt, with whatever document
// metadata the property streams carry, so the operator knows the file
// needs converting instead of repairing.
func (s *Scanner) checkLegacy(path, name string, res *Result) {
	f, err := os.Open(path)
	if err != nil {
		s.skip(res, name, models.SkipCorrupted, err.Error())
		return
	}
	defer f.Close()

	doc, err := mscfb.New(f)
	if err != nil {
		s.skip(res, name, models.SkipCorrupted, "not a valid OLE compound file: "+err.Error())
		return
	}

	detail := "legacy .xls workbook, convert to .xlsx to consolidate"
	if meta := legacyMetadata(doc); meta != "" {
		detail += " (" + meta + ")"
	}
	s.skip(res, name, models.SkipLegacyFormat, detail)
}

// legacyMetadata pulls a few identifying properties out of the OLE
// summary streams.
func legacyMetadata(doc *mscfb.Reader) string {
	var parts []string
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		if !msoleps.IsMSOLEPS(entry.Initial) {
			continue
		}
		props := msoleps.New()
		if err := props.Reset(doc); err != nil {
			continue
		}
		for _, p := range props.Property {
			if p.Name == "" {
				continue
			}
			if v := p.String(); v != "" {
				parts = append(parts, p.Name+"="+v)
			}
			if len(parts) == 3 {
				return strings.Join(parts, ", ")
			}
		}
	}
	return strings.Join(parts, ", ")
}
