package plan

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// TreatmentPlan is the persisted form of a Record, keyed by its derived id.
type TreatmentPlan struct {
	DocumentID     string         `gorm:"column:document_id;primaryKey" json:"document_id"`
	PatientID      string         `gorm:"column:patient_id;index" json:"patient_id"`
	CenterID       string         `gorm:"column:center_id;index" json:"center_id"`
	PractitionerID string         `gorm:"column:practitioner_id;index" json:"practitioner_id"`
	Record         datatypes.JSON `gorm:"column:record;not null" json:"record"`
	CreatedAt      time.Time      `gorm:"column:created_at;not null;index" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (TreatmentPlan) TableName() string { return "plans_traitement" }

func NewTreatmentPlan(documentID string, r Record) (*TreatmentPlan, error) {
	r.DocumentID = documentID
	r.CreatedAt, r.UpdatedAt = nil, nil
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode plan record: %w", err)
	}
	return &TreatmentPlan{
		DocumentID:     documentID,
		PatientID:      r.IDPatient,
		CenterID:       r.IDCentre,
		PractitionerID: r.IDPraticien,
		Record:         datatypes.JSON(raw),
	}, nil
}

// Decode returns the stored record stamped with the row's id and timestamps.
func (tp *TreatmentPlan) Decode() (*Record, error) {
	var r Record
	if len(tp.Record) > 0 {
		if err := json.Unmarshal(tp.Record, &r); err != nil {
			return nil, fmt.Errorf("decode plan record %s: %w", tp.DocumentID, err)
		}
	}
	r.Normalize()
	r.DocumentID = tp.DocumentID
	created, updated := tp.CreatedAt, tp.UpdatedAt
	r.CreatedAt, r.UpdatedAt = &created, &updated
	return &r, nil
}
