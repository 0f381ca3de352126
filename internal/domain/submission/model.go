// Package submission forwards a completed questionnaire to the clinical
// intake service and settles the patient's card hold with the outcome: the
// hold is captured only when the visit is accepted and released otherwise.
package submission

import (
	"encoding/json"
	"time"
)

// Status is the terminal outcome of one submission attempt.
type Status string

const (
	StatusSuccess         Status = "success"
	StatusCaptureFailed   Status = "capture_failed"
	StatusBelugaError     Status = "beluga_error"
	StatusValidationError Status = "validation_error"
	StatusNetworkError    Status = "network_error"
	StatusInternalError   Status = "internal_error"
)

// MedicationType is the product line every visit belongs to.
const MedicationType = "neffy"

// LogEntry is the audit record written for every submission attempt.
type LogEntry struct {
	ID              string          `json:"id"`
	MasterID        string          `json:"masterId"`
	Timestamp       time.Time       `json:"timestamp"`
	PatientName     string          `json:"patientName"`
	PatientEmail    string          `json:"patientEmail"`
	PatientPhone    string          `json:"patientPhone"`
	MedicationType  string          `json:"medicationType"`
	PlanDuration    int             `json:"planDuration"`
	ProductID       string          `json:"productId"`
	Status          Status          `json:"status"`
	HTTPStatus      *int            `json:"httpStatus"`
	BelugaResponse  json.RawMessage `json:"belugaResponse"`
	ErrorMessage    *string         `json:"errorMessage"`
	PaymentIntentID string          `json:"paymentIntentId"`
	VisitType       string          `json:"visitType"`
	DurationMs      int64           `json:"durationMs"`
	AffiliateCode   string          `json:"affiliateCode"`
	DiscountAmount  float64         `json:"discountAmount"`
	PatientCity     string          `json:"patientCity"`
	PaymentAmount   float64         `json:"paymentAmount"`
}

// VisitForm is the part of the questionnaire the intake service needs.
// The three medical free-text fields are pointers so an absent field can
// default to "None" while an explicitly empty one is still rejected.
type VisitForm struct {
	FirstName           string            `json:"firstName"`
	LastName            string            `json:"lastName"`
	DOB                 string            `json:"dob"`
	Phone               string            `json:"phone"`
	Email               string            `json:"email"`
	Address             string            `json:"address"`
	City                string            `json:"city"`
	State               string            `json:"state"`
	Zip                 string            `json:"zip"`
	Sex                 string            `json:"sex"`
	SelfReportedMeds    *string           `json:"selfReportedMeds"`
	Allergies           *string           `json:"allergies"`
	MedicalConditions   *string           `json:"medicalConditions"`
	IDNumber            string            `json:"idNumber"`
	SelectedPlanID      string            `json:"selectedPlanId"`
	Answers             map[string]string `json:"answers"`
	ConditionsChecklist []string          `json:"conditionsChecklist"`
	AllergenTypes       []string          `json:"allergenTypes"`
}

// VisitRequest is the body of a submission.
type VisitRequest struct {
	PaymentIntentID string    `json:"paymentIntentId"`
	SelectedPlanID  string    `json:"selectedPlanId"`
	FormData        VisitForm `json:"formData"`
}

// Outcome is what the caller is told about a submission.
type Outcome struct {
	Status   Status
	HTTPCode int
	Message  string
	// Debug carries field-level problems for rejected input.
	Debug    []string
	VisitID  json.RawMessage
	MasterID string
}
