package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/expcgm/internal/profile"
)

// ExportData is a self-contained JSON document of one run.
type ExportData struct {
	Run     RunMetadata  `json:"run"`
	Columns []string     `json:"columns"`
	Rows    [][7]float64 `json:"rows"`
}

func NewExportData(meta RunMetadata, rows []profile.Integrals) ExportData {
	data := ExportData{
		Run:     meta,
		Columns: profileHeader,
		Rows:    make([][7]float64, len(rows)),
	}
	for i, r := range rows {
		data.Rows[i] = [7]float64{r.X, r.F(), r.I, r.JPhi, r.JTh, r.JNt, r.Norm()}
	}
	return data
}

func ExportJSON(path string, meta RunMetadata, rows []profile.Integrals) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := EncodeJSON(file, meta, rows); err != nil {
		return err
	}
	return file.Close()
}

func EncodeJSON(w io.Writer, meta RunMetadata, rows []profile.Integrals) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewExportData(meta, rows))
}
