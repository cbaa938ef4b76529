package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"labeller/internal/catalog"
	"labeller/internal/labelstore"
	"labeller/internal/taxonomy"
	"labeller/internal/textutil"
)

// TimestampLayout formats timestamps in tables and summaries.
const TimestampLayout = "2006-01-02 15:04:05"

var (
	clinicalColumns = []string{"case", "visit", "file", "label", "comment"}
	gradingColumns  = []string{
		"Case_ID", "Visit_ID", "Body_Site", "Magnification", "Image_File",
		"Diagnosis", "Subtype", "Comment", "Time_Spent_sec", "Annotator", "Timestamp",
	}
)

// Columns returns the table header for a variant.
func Columns(v *taxonomy.Variant) []string {
	if v.Grouped() {
		return append([]string(nil), gradingColumns...)
	}
	return append([]string(nil), clinicalColumns...)
}

// WriteTable writes a header row and one row per record in the order given.
func WriteTable(w io.Writer, v *taxonomy.Variant, records []labelstore.Record, annotator string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns(v)); err != nil {
		return err
	}
	for _, rec := range records {
		if err := cw.Write(tableRow(v, rec, annotator)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func tableRow(v *taxonomy.Variant, rec labelstore.Record, annotator string) []string {
	comment := textutil.SingleLine(rec.Comment)
	if !v.Grouped() {
		return []string{
			rec.Image.CaseID,
			rec.Image.VisitID,
			rec.Image.Filename,
			string(rec.Category),
			comment,
		}
	}
	stamp := ""
	if !rec.LabelledAt.IsZero() {
		stamp = rec.LabelledAt.Format(TimestampLayout)
	}
	return []string{
		rec.Image.CaseID,
		rec.Image.VisitID,
		rec.Image.BodySite(),
		rec.Image.Magnification(),
		rec.Image.Filename,
		string(rec.Category),
		taxonomy.SubtypeOrNone(rec.Subtype).String(),
		comment,
		strconv.FormatFloat(rec.TimeSpent.Seconds(), 'f', 2, 64),
		annotator,
		stamp,
	}
}

// ReadTable parses a table written by WriteTable back into records. Image
// keys are not stored in the table and are left empty.
func ReadTable(path string, v *taxonomy.Variant) ([]labelstore.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read table header: %w", err)
	}
	want := Columns(v)
	if strings.Join(header, ",") != strings.Join(want, ",") {
		return nil, fmt.Errorf("table header %v does not match %s columns", header, v.Name)
	}
	cr.FieldsPerRecord = len(want)

	var out []labelstore.Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read table row %d: %w", line, err)
		}
		rec, err := parseRow(v, row)
		if err != nil {
			return nil, fmt.Errorf("table row %d: %w", line, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func parseRow(v *taxonomy.Variant, row []string) (labelstore.Record, error) {
	if !v.Grouped() {
		return labelstore.Record{
			Image: catalog.ImageRecord{
				CaseID:   row[0],
				VisitID:  row[1],
				Filename: row[2],
			},
			Category: taxonomy.Category(row[3]),
			Subtype:  taxonomy.NoSubtype{},
			Comment:  row[4],
		}, nil
	}
	category := taxonomy.Category(row[5])
	subtype, err := taxonomy.ParseSubtype(category, row[6])
	if err != nil {
		return labelstore.Record{}, err
	}
	var spent time.Duration
	if row[8] != "" {
		secs, err := strconv.ParseFloat(row[8], 64)
		if err != nil {
			return labelstore.Record{}, fmt.Errorf("parse time spent %q: %w", row[8], err)
		}
		spent = time.Duration(secs * float64(time.Second))
	}
	var at time.Time
	if row[10] != "" {
		at, err = time.ParseInLocation(TimestampLayout, row[10], time.Local)
		if err != nil {
			return labelstore.Record{}, fmt.Errorf("parse timestamp %q: %w", row[10], err)
		}
	}
	return labelstore.Record{
		Image: catalog.ImageRecord{
			CaseID:   row[0],
			VisitID:  row[1],
			Groups:   []string{row[2], row[3]},
			MagValue: catalog.MagnificationValue(row[3]),
			Filename: row[4],
		},
		Category:   category,
		Subtype:    subtype,
		Comment:    row[7],
		TimeSpent:  spent,
		LabelledAt: at,
	}, nil
}
