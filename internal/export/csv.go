package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"
)

var csvHeader = []string{"Type", "ID", "Time", "Weight (kg)", "Height (cm)", "BMI", "Class", "Water (ml)"}

func ToCSV(h *History, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(csvHeader); err != nil {
		return err
	}
	if h == nil {
		return nil
	}

	for _, r := range h.records() {
		row := []string{r.kind, strconv.FormatInt(r.id, 10), r.at.Local().Format(time.RFC3339), "", "", "", "", ""}
		if r.c != nil {
			row[3] = strconv.FormatFloat(r.c.WeightKg, 'f', 1, 64)
			if r.c.HeightCm > 0 {
				row[4] = strconv.Itoa(r.c.HeightCm)
			}
			if r.c.BMI > 0 {
				row[5] = strconv.FormatFloat(r.c.BMI, 'f', 1, 64)
			}
			row[6] = bmiClass(r.c.BMI)
		} else {
			row[7] = strconv.Itoa(r.ml)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
