package intake

import (
	"bytes"
	"encoding/json"
)

// ScreenType selects how a screen is rendered and how its answer is recorded.
type ScreenType string

const (
	ScreenLanding      ScreenType = "landing"
	ScreenConsent      ScreenType = "consent"
	ScreenDOB          ScreenType = "dob"
	ScreenSingleSelect ScreenType = "single-select"
	ScreenMultiSelect  ScreenType = "multi-select"
	ScreenTextarea     ScreenType = "textarea"
	ScreenYesNo        ScreenType = "yes-no"
	ScreenDeclaration  ScreenType = "declaration"
	ScreenConsentLong  ScreenType = "consent-long"
	ScreenPhoneVerify  ScreenType = "phone-verify"
	ScreenEmailID      ScreenType = "email-id"
	ScreenShipping     ScreenType = "shipping"
	ScreenPlanSelect   ScreenType = "plan-select"
	ScreenCheckout     ScreenType = "checkout"
)

// NoneOfTheAbove is the exclusive multi-select choice. It is also the
// recorded answer when nothing is selected.
const NoneOfTheAbove = "None of the above"

type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Condition compares the answer recorded for ScreenID against a literal.
// Equals takes precedence over NotEquals; a condition with neither holds.
type Condition struct {
	ScreenID  string  `json:"screenId"`
	Equals    *string `json:"equals,omitempty"`
	NotEquals *string `json:"notEquals,omitempty"`
}

// Holds reports whether the condition is satisfied. An unanswered screen
// compares as absent: Equals fails and NotEquals succeeds.
func (c Condition) Holds(answers map[string]string) bool {
	got, answered := answers[c.ScreenID]
	if c.Equals != nil {
		return answered && got == *c.Equals
	}
	if c.NotEquals != nil {
		return !answered || got != *c.NotEquals
	}
	return true
}

// Rule is a conjunction of conditions. A nil rule always holds.
//
// On the wire a single-condition rule is an object and a conjunction is an
// array; both forms decode.
type Rule []Condition

func (r Rule) Holds(answers map[string]string) bool {
	for _, c := range r {
		if !c.Holds(answers) {
			return false
		}
	}
	return true
}

func (r Rule) MarshalJSON() ([]byte, error) {
	if len(r) == 1 {
		return json.Marshal(r[0])
	}
	return json.Marshal([]Condition(r))
}

func (r *Rule) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = nil
		return nil
	}
	if len(data) > 0 && data[0] == '{' {
		var c Condition
		if err := json.Unmarshal(data, &c); err != nil {
			return err
		}
		*r = Rule{c}
		return nil
	}
	var cs []Condition
	if err := json.Unmarshal(data, &cs); err != nil {
		return err
	}
	*r = cs
	return nil
}

// Equals and NotEquals build single conditions.
func Equals(screenID, value string) Condition {
	return Condition{ScreenID: screenID, Equals: &value}
}

func NotEquals(screenID, value string) Condition {
	return Condition{ScreenID: screenID, NotEquals: &value}
}

// Screen is one step of the questionnaire. FormField names the FormData text
// field a textarea answer is also copied to.
type Screen struct {
	ID          string     `json:"id"`
	Type        ScreenType `json:"type"`
	Title       string     `json:"title,omitempty"`
	Subtitle    string     `json:"subtitle,omitempty"`
	QuestionKey string     `json:"questionKey,omitempty"`
	Options     []Option   `json:"options,omitempty"`
	Placeholder string     `json:"placeholder,omitempty"`
	FormField   string     `json:"formField,omitempty"`
	ShowIf      Rule       `json:"showIf,omitempty"`
}

// FormData is the in-progress questionnaire aggregate. Its JSON shape is
// shared with the browser and with the checkout cookie.
type FormData struct {
	FirstName           string            `json:"firstName"`
	LastName            string            `json:"lastName"`
	DOB                 string            `json:"dob"`
	Phone               string            `json:"phone"`
	Email               string            `json:"email"`
	IDNumber            string            `json:"idNumber"`
	Address             string            `json:"address"`
	City                string            `json:"city"`
	State               string            `json:"state"`
	Zip                 string            `json:"zip"`
	SelfReportedMeds    string            `json:"selfReportedMeds"`
	Allergies           string            `json:"allergies"`
	MedicalConditions   string            `json:"medicalConditions"`
	Answers             map[string]string `json:"answers"`
	ConditionsChecklist []string          `json:"conditionsChecklist"`
	AllergenTypes       []string          `json:"allergenTypes"`
	SelectedPlanID      string            `json:"selectedPlanId"`
	PhoneVerified       bool              `json:"phoneVerified"`
	ConsentsSigned      bool              `json:"consentsSigned"`
	PaymentIntentID     string            `json:"paymentIntentId"`
	PaymentComplete     bool              `json:"paymentComplete"`
	DiscountCode        string            `json:"discountCode"`
	DiscountAmount      float64           `json:"discountAmount"`
}

// NewFormData returns an empty aggregate with non-nil collections.
func NewFormData() FormData {
	return FormData{
		Answers:             map[string]string{},
		ConditionsChecklist: []string{},
		AllergenTypes:       []string{},
	}
}

// normalize restores the empty-aggregate invariants after decoding.
func (f *FormData) normalize() {
	if f.Answers == nil {
		f.Answers = map[string]string{}
	}
	if f.ConditionsChecklist == nil {
		f.ConditionsChecklist = []string{}
	}
	if f.AllergenTypes == nil {
		f.AllergenTypes = []string{}
	}
}

// Clone returns a deep copy.
func (f FormData) Clone() FormData {
	out := f
	out.Answers = make(map[string]string, len(f.Answers))
	for k, v := range f.Answers {
		out.Answers[k] = v
	}
	out.ConditionsChecklist = append([]string{}, f.ConditionsChecklist...)
	out.AllergenTypes = append([]string{}, f.AllergenTypes...)
	return out
}

// Medication is a dispensable item as the pharmacy catalog names it.
type Medication struct {
	MedID    string `json:"medId"`
	Name     string `json:"name"`
	Strength string `json:"strength"`
	Quantity string `json:"quantity"`
	Refills  string `json:"refills"`
	Dispense string `json:"dispense"`
	Days     int    `json:"days"`
	Sig      string `json:"sig"`
}

// Product is a purchasable plan.
type Product struct {
	ID             string     `json:"id"`
	Label          string     `json:"label"`
	Description    string     `json:"description"`
	Duration       int        `json:"duration"`
	Quantity       int        `json:"quantity"`
	PricePerDevice float64    `json:"pricePerDevice"`
	TotalPrice     float64    `json:"totalPrice"`
	Medication     Medication `json:"medication"`
}
