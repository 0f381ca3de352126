package submission

import (
	"bytes"
	"encoding/json"
	"math/rand"
	"strconv"
	"time"

	"github.com/gever/intake/internal/domain/intake"
)

const (
	Company   = "geverHealth"
	VisitType = "neffyIntake"

	// The intake service requires a US-style state and zip; patients are
	// all in Israel.
	patientState = "IL"
	patientZip   = "0000000"
)

// PreferredMedication is the patient's requested prescription.
type PreferredMedication struct {
	Name     string `json:"name"`
	Strength string `json:"strength"`
	Quantity string `json:"quantity"`
	Refills  string `json:"refills"`
	MedID    string `json:"medId"`
}

// FormObject is the patient part of a visit. QA holds the numbered
// question/answer keys, which are flattened into the same JSON object.
type FormObject struct {
	ConsentsSigned    bool                  `json:"consentsSigned"`
	FirstName         string                `json:"firstName"`
	LastName          string                `json:"lastName"`
	DOB               string                `json:"dob"`
	Phone             string                `json:"phone"`
	Email             string                `json:"email"`
	Address           string                `json:"address"`
	City              string                `json:"city"`
	State             string                `json:"state"`
	Zip               string                `json:"zip"`
	Sex               string                `json:"sex"`
	SelfReportedMeds  string                `json:"selfReportedMeds"`
	Allergies         string                `json:"allergies"`
	MedicalConditions string                `json:"medicalConditions"`
	PatientPreference []PreferredMedication `json:"patientPreference"`
	QA                map[string]string     `json:"-"`
}

func (f FormObject) MarshalJSON() ([]byte, error) {
	type plain FormObject
	base, err := json.Marshal(plain(f))
	if err != nil || len(f.QA) == 0 {
		return base, err
	}
	qa, err := json.Marshal(f.QA)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Write(base[:len(base)-1])
	buf.WriteByte(',')
	buf.Write(qa[1:])
	return buf.Bytes(), nil
}

// firstEmpty names the first required scalar field that is empty, or "".
func (f *FormObject) firstEmpty() string {
	for _, field := range []struct {
		name  string
		value string
	}{
		{"firstName", f.FirstName},
		{"lastName", f.LastName},
		{"dob", f.DOB},
		{"phone", f.Phone},
		{"email", f.Email},
		{"address", f.Address},
		{"city", f.City},
		{"state", f.State},
		{"zip", f.Zip},
		{"sex", f.Sex},
		{"selfReportedMeds", f.SelfReportedMeds},
		{"allergies", f.Allergies},
		{"medicalConditions", f.MedicalConditions},
	} {
		if field.value == "" {
			return field.name
		}
	}
	return ""
}

// Payload is the body of a createNoPay call.
type Payload struct {
	FormObj         FormObject `json:"formObj"`
	PatientVerified bool       `json:"patientVerified"`
	VerificationID  string     `json:"verificationId"`
	PharmacyID      string     `json:"pharmacyId"`
	VisitID         string     `json:"visitId"`
	Company         string     `json:"company"`
	VisitType       string     `json:"visitType"`
}

// BuildPayload assembles a visit for product from a validated form.
func BuildPayload(f *VisitForm, product intake.Product, pharmacyID, masterID string, screens []intake.Screen) *Payload {
	verificationID := f.IDNumber
	if verificationID == "" {
		verificationID = "NA"
	}
	med := product.Medication
	return &Payload{
		FormObj: FormObject{
			ConsentsSigned:    true,
			FirstName:         f.FirstName,
			LastName:          f.LastName,
			DOB:               f.DOB,
			Phone:             f.Phone,
			Email:             f.Email,
			Address:           f.Address,
			City:              f.City,
			State:             patientState,
			Zip:               patientZip,
			Sex:               f.Sex,
			SelfReportedMeds:  deref(f.SelfReportedMeds),
			Allergies:         deref(f.Allergies),
			MedicalConditions: deref(f.MedicalConditions),
			PatientPreference: []PreferredMedication{{
				Name:     med.Name,
				Strength: med.Strength,
				Quantity: med.Quantity,
				Refills:  med.Refills,
				MedID:    med.MedID,
			}},
			QA: intake.QAFields(intake.ProjectQA(screens, f.Answers)),
		},
		PatientVerified: true,
		VerificationID:  verificationID,
		PharmacyID:      pharmacyID,
		VisitID:         masterID,
		Company:         Company,
		VisitType:       VisitType,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewMasterID returns gever_{base36 epoch ms}_{8 random base36 chars}.
func NewMasterID(now time.Time) string {
	suffix := make([]byte, 8)
	for i := range suffix {
		suffix[i] = base36[rand.Intn(len(base36))]
	}
	return "gever_" + strconv.FormatInt(now.UnixMilli(), 36) + "_" + string(suffix)
}
