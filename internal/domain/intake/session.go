package intake

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Keys under which a session persists itself in tab-scoped storage.
const (
	TabDataKey = "neffy_form_data"
	TabStepKey = "neffy_form_step"
)

// TabStore is storage that survives a full page navigation inside one
// browser tab.
type TabStore interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// MemoryTab is a map-backed TabStore.
type MemoryTab map[string]string

func (m MemoryTab) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func (m MemoryTab) Set(key, value string) error {
	m[key] = value
	return nil
}

// Session is one respondent's walk through a Flow. Every mutation is written
// through to the TabStore. A Session is not safe for concurrent use.
type Session struct {
	flow         *Flow
	tab          TabStore
	data         FormData
	step         int
	disqualified bool
}

// NewSession starts an empty session at the first screen.
func NewSession(flow *Flow, tab TabStore) *Session {
	s := &Session{flow: flow, tab: tab, data: NewFormData()}
	s.persist()
	return s
}

func (s *Session) Data() FormData { return s.data.Clone() }

func (s *Session) Step() int { return s.step }

func (s *Session) Current() Screen { return s.flow.Screen(s.step) }

func (s *Session) Disqualified() bool { return s.disqualified }

func (s *Session) VisibleStepIndex() int {
	return s.flow.VisibleStepIndex(s.step, s.data.Answers)
}

func (s *Session) VisibleStepCount() int {
	return s.flow.VisibleStepCount(s.data.Answers)
}

// Update applies fn to the aggregate, the equivalent of setting one or more
// named fields.
func (s *Session) Update(fn func(*FormData)) {
	fn(&s.data)
	s.data.normalize()
	s.persist()
}

// RecordAnswer stores value as the answer for screenID, replacing any
// earlier answer.
func (s *Session) RecordAnswer(screenID, value string) {
	s.data.Answers[screenID] = value
	s.persist()
}

// Response is what a respondent submitted on one question screen.
type Response struct {
	Value  string   `json:"value,omitempty"`
	Values []string `json:"values,omitempty"`
}

// Respond records r for the question screen screenID using that screen
// type's rules.
func (s *Session) Respond(screenID string, r Response) error {
	i, ok := s.flow.Lookup(screenID)
	if !ok {
		return fmt.Errorf("unknown screen %q", screenID)
	}
	screen := s.flow.screens[i]

	switch screen.Type {
	case ScreenYesNo:
		if r.Value != "Yes" && r.Value != "No" {
			return fmt.Errorf("screen %q expects Yes or No", screenID)
		}
		s.data.Answers[screenID] = r.Value

	case ScreenSingleSelect:
		if !hasOption(screen, r.Value) {
			return fmt.Errorf("screen %q has no option %q", screenID, r.Value)
		}
		s.data.Answers[screenID] = r.Value

	case ScreenMultiSelect:
		selected, err := multiSelection(screen, r.Values)
		if err != nil {
			return err
		}
		switch screenID {
		case "allergen-types":
			s.data.AllergenTypes = selected
		case "conditions-checklist":
			s.data.ConditionsChecklist = selected
		}
		if len(selected) == 0 {
			s.data.Answers[screenID] = NoneOfTheAbove
		} else {
			s.data.Answers[screenID] = strings.Join(selected, "; ")
		}

	case ScreenTextarea:
		value := strings.TrimSpace(r.Value)
		if value == "" {
			value = screen.Placeholder
		}
		s.data.Answers[screenID] = value
		setTextField(&s.data, screen.FormField, value)

	default:
		return fmt.Errorf("screen %q of type %s does not take a response", screenID, screen.Type)
	}

	s.persist()
	return nil
}

func hasOption(screen Screen, value string) bool {
	for _, o := range screen.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}

// multiSelection validates values and applies the exclusivity of
// "None of the above".
func multiSelection(screen Screen, values []string) ([]string, error) {
	out := []string{}
	seen := map[string]bool{}
	for _, v := range values {
		if !hasOption(screen, v) {
			return nil, fmt.Errorf("screen %q has no option %q", screen.ID, v)
		}
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	if seen[NoneOfTheAbove] {
		return []string{NoneOfTheAbove}, nil
	}
	return out, nil
}

func setTextField(f *FormData, field, value string) {
	switch field {
	case "selfReportedMeds":
		f.SelfReportedMeds = value
	case "medicalConditions":
		f.MedicalConditions = value
	case "allergies":
		f.Allergies = value
	}
}

// Next moves to the next visible screen. It is a no-op while disqualified.
func (s *Session) Next() {
	if s.disqualified {
		return
	}
	s.step = s.flow.Advance(s.step, s.data.Answers)
	s.persist()
}

// Prev moves to the previous visible screen. It is a no-op while
// disqualified.
func (s *Session) Prev() {
	if s.disqualified {
		return
	}
	s.step = s.flow.Retreat(s.step, s.data.Answers)
	s.persist()
}

// GoTo jumps to step, clamped into range. It is a no-op while disqualified.
func (s *Session) GoTo(step int) {
	if s.disqualified {
		return
	}
	s.step = s.flow.Clamp(step)
	s.persist()
}

// Disqualify enters the terminal state. Only Reset leaves it.
func (s *Session) Disqualify() {
	s.disqualified = true
}

// Reset discards all answers and returns to the first screen.
func (s *Session) Reset() {
	s.data = NewFormData()
	s.step = 0
	s.disqualified = false
	s.persist()
}

// persist writes the aggregate and step. Storage failures are ignored: the
// session keeps working in memory.
func (s *Session) persist() {
	if s.tab == nil {
		return
	}
	raw, err := json.Marshal(s.data)
	if err != nil {
		return
	}
	_ = s.tab.Set(TabDataKey, string(raw))
	_ = s.tab.Set(TabStepKey, strconv.Itoa(s.step))
}
