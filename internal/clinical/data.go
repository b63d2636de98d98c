// Package clinical loads patient biomarker data and correlates it with
// computed obstruction scores.
package clinical

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"graphscore/internal/errors"
)

// PatientIDColumn is the CSV column identifying a patient.
const PatientIDColumn = "patient_id"

// Observation is one patient's cleaned biomarker value.
type Observation struct {
	PatientID string  `json:"patientId"`
	Value     float64 `json:"value"`
}

// LoadBiomarker reads the clinical CSV and returns cleaned observations
// for one biomarker column. Lab exports write censored values like
// "< 3" (detection limit) and "NF" (not found); the "<" prefix is
// stripped and non-numeric rows are dropped.
func LoadBiomarker(path, column string) ([]Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ClinicalDataInvalid, "opening clinical data "+path, err)
	}
	defer f.Close()
	return ParseBiomarker(f, column)
}

// ParseBiomarker reads clinical CSV rows from r and cleans one column.
func ParseBiomarker(r io.Reader, column string) ([]Observation, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(errors.ClinicalDataInvalid, "reading CSV header", err)
	}

	idCol, valCol := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case PatientIDColumn:
			idCol = i
		case column:
			valCol = i
		}
	}
	if idCol < 0 {
		return nil, errors.Newf(errors.ClinicalDataInvalid,
			"clinical data has no %q column", PatientIDColumn)
	}
	if valCol < 0 {
		return nil, errors.Newf(errors.ClinicalDataInvalid,
			"clinical data has no %q column", column)
	}

	var obs []Observation
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ClinicalDataInvalid, "reading CSV row", err)
		}
		if idCol >= len(record) || valCol >= len(record) {
			continue
		}
		value, ok := cleanValue(record[valCol])
		if !ok {
			continue
		}
		obs = append(obs, Observation{
			PatientID: strings.TrimSpace(record[idCol]),
			Value:     value,
		})
	}
	return obs, nil
}

// cleanValue normalizes one raw biomarker cell.
func cleanValue(raw string) (float64, bool) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, "<", ""))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
