package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

type jsonExport struct {
	ExportedAt string        `json:"exported_at"`
	UserID     string        `json:"user_id"`
	CheckIns   []jsonCheckIn `json:"check_ins"`
	Intake     []jsonIntake  `json:"intake"`
	TotalMl    int           `json:"total_ml"`
}

type jsonCheckIn struct {
	ID       int64   `json:"id"`
	Time     string  `json:"time"`
	WeightKg float64 `json:"weight_kg"`
	HeightCm int     `json:"height_cm,omitempty"`
	BMI      float64 `json:"bmi,omitempty"`
	Class    string  `json:"class,omitempty"`
}

type jsonIntake struct {
	ID       int64  `json:"id"`
	Time     string `json:"time"`
	AmountMl int    `json:"amount_ml"`
}

func ToJSON(h *History, path string) error {
	if h == nil {
		h = &History{}
	}
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		UserID:     h.UserID,
		TotalMl:    h.totalMl(),
	}

	for _, c := range h.CheckIns {
		export.CheckIns = append(export.CheckIns, jsonCheckIn{
			ID:       c.ID,
			Time:     c.CreatedAt.Local().Format(time.RFC3339),
			WeightKg: c.WeightKg,
			HeightCm: c.HeightCm,
			BMI:      c.BMI,
			Class:    bmiClass(c.BMI),
		})
	}
	for _, in := range h.Intake {
		export.Intake = append(export.Intake, jsonIntake{
			ID:       in.ID,
			Time:     in.CreatedAt.Local().Format(time.RFC3339),
			AmountMl: in.AmountMl,
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
