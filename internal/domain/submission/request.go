package submission

import (
	"github.com/gever/intake/internal/domain/intake"
	"github.com/gever/intake/internal/platform/validate"
)

const (
	maxAnswerLength   = 1000
	maxFreeTextLength = 2000
)

// Validate checks the request and fills defaults. Problems are reported
// with their field path.
func (r *VisitRequest) Validate() error {
	var v validate.Checker
	v.Len("paymentIntentId", r.PaymentIntentID, 0, 200)
	v.Len("selectedPlanId", r.SelectedPlanID, 0, 50)

	f := &r.FormData
	v.Len("formData.firstName", f.FirstName, 1, 100)
	v.Len("formData.lastName", f.LastName, 1, 100)
	v.Match("formData.dob", f.DOB, validate.DOBPattern, "DOB must be MM/DD/YYYY")
	v.Len("formData.phone", f.Phone, 0, 20)
	v.Email("formData.email", f.Email)
	v.Len("formData.address", f.Address, 1, 500)
	v.Len("formData.city", f.City, 1, 100)
	v.Len("formData.state", f.State, 0, 50)
	v.Len("formData.zip", f.Zip, 0, 10)
	v.Len("formData.sex", f.Sex, 0, 20)
	v.Len("formData.idNumber", f.IDNumber, 0, 50)
	v.Len("formData.selectedPlanId", f.SelectedPlanID, 0, 50)

	for _, t := range []struct {
		field string
		p     **string
	}{
		{"formData.selfReportedMeds", &f.SelfReportedMeds},
		{"formData.allergies", &f.Allergies},
		{"formData.medicalConditions", &f.MedicalConditions},
	} {
		if *t.p == nil {
			none := "None"
			*t.p = &none
			continue
		}
		v.Len(t.field, **t.p, 0, maxFreeTextLength)
	}

	for id, a := range f.Answers {
		v.Len("formData.answers."+id, a, 0, maxAnswerLength)
	}

	if f.SelectedPlanID == "" {
		f.SelectedPlanID = intake.DefaultPlanID
	}
	if f.Answers == nil {
		f.Answers = map[string]string{}
	}
	return v.Err()
}

// planID is the plan named at the top level, else in the form.
func (r *VisitRequest) planID() string {
	if r.SelectedPlanID != "" {
		return r.SelectedPlanID
	}
	if r.FormData.SelectedPlanID != "" {
		return r.FormData.SelectedPlanID
	}
	return intake.DefaultPlanID
}

// sanitize strips control characters from the free-text fields before
// they leave the service.
func (f *VisitForm) sanitize() {
	for _, p := range []*string{f.SelfReportedMeds, f.Allergies, f.MedicalConditions} {
		if p != nil {
			*p = validate.SanitizeString(*p)
		}
	}
	for id, a := range f.Answers {
		f.Answers[id] = validate.SanitizeString(a)
	}
}
