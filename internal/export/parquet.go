package export

import (
	"io"

	"github.com/parquet-go/parquet-go"

	"labeller/internal/labelstore"
	"labeller/internal/taxonomy"
)

// ParquetRow is the columnar form of a label record.
type ParquetRow struct {
	SessionID     string  `parquet:"session_id"`
	Annotator     string  `parquet:"annotator"`
	ImageKey      string  `parquet:"image_key"`
	CaseID        string  `parquet:"case_id"`
	VisitID       string  `parquet:"visit_id"`
	BodySite      string  `parquet:"body_site"`
	Magnification string  `parquet:"magnification"`
	MagValue      int32   `parquet:"mag_value"`
	ImageFile     string  `parquet:"image_file"`
	Category      string  `parquet:"category"`
	Subtype       string  `parquet:"subtype"`
	Comment       string  `parquet:"comment"`
	TimeSpentSec  float64 `parquet:"time_spent_sec"`
	LabelledAtMS  int64   `parquet:"labelled_at_unix_ms"`
}

func parquetRows(snap Snapshot) []ParquetRow {
	rows := make([]ParquetRow, 0, len(snap.Records))
	for _, rec := range snap.Records {
		rows = append(rows, parquetRow(snap, rec))
	}
	return rows
}

func parquetRow(snap Snapshot, rec labelstore.Record) ParquetRow {
	var at int64
	if !rec.LabelledAt.IsZero() {
		at = rec.LabelledAt.UnixMilli()
	}
	return ParquetRow{
		SessionID:     snap.Session.ID,
		Annotator:     snap.Session.Annotator,
		ImageKey:      rec.Image.Key,
		CaseID:        rec.Image.CaseID,
		VisitID:       rec.Image.VisitID,
		BodySite:      rec.Image.BodySite(),
		Magnification: rec.Image.Magnification(),
		MagValue:      int32(rec.Image.MagValue),
		ImageFile:     rec.Image.Filename,
		Category:      string(rec.Category),
		Subtype:       taxonomy.SubtypeOrNone(rec.Subtype).String(),
		Comment:       rec.Comment,
		TimeSpentSec:  rec.TimeSpent.Seconds(),
		LabelledAtMS:  at,
	}
}

func writeParquet(w io.Writer, snap Snapshot) error {
	return parquet.Write(w, parquetRows(snap))
}

// ReadParquet loads the rows of a Parquet export.
func ReadParquet(path string) ([]ParquetRow, error) {
	return parquet.ReadFile[ParquetRow](path)
}
