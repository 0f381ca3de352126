package intake

import (
	"encoding/json"
	"testing"
)

func TestScreens_Catalog(t *testing.T) {
	screens := Screens()
	if len(screens) != 34 {
		t.Fatalf("expected 34 screens, got %d", len(screens))
	}
	if screens[0].Type != ScreenLanding || screens[len(screens)-1].Type != ScreenCheckout {
		t.Errorf("expected landing first and checkout last, got %s and %s", screens[0].Type, screens[len(screens)-1].Type)
	}

	seen := map[string]int{}
	for i, s := range screens {
		if _, dup := seen[s.ID]; dup {
			t.Errorf("duplicate screen id %q", s.ID)
		}
		for _, c := range s.ShowIf {
			at, ok := seen[c.ScreenID]
			if !ok || at >= i {
				t.Errorf("screen %q references %q which is not earlier", s.ID, c.ScreenID)
			}
		}
		seen[s.ID] = i
	}
}

func TestFlow_ConjunctiveRule(t *testing.T) {
	f := DefaultFlow()
	i, _ := f.Lookup("epi-side-effects")

	tests := []struct {
		name    string
		answers map[string]string
		want    bool
	}{
		{"nothing answered", map[string]string{}, false},
		{"second condition unanswered", map[string]string{"anaphylaxis": "Yes"}, false},
		{"second condition No", map[string]string{"anaphylaxis": "Yes", "anaphylaxis-epi-use": "No"}, false},
		{"both Yes", map[string]string{"anaphylaxis": "Yes", "anaphylaxis-epi-use": "Yes"}, true},
		{"first No", map[string]string{"anaphylaxis": "No", "anaphylaxis-epi-use": "Yes"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.IsVisible(i, tt.answers); got != tt.want {
				t.Errorf("IsVisible = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCondition_NotEqualsUnanswered(t *testing.T) {
	c := NotEquals("anaphylaxis", "Yes")
	if !c.Holds(map[string]string{}) {
		t.Error("notEquals should hold for an unanswered screen")
	}
	if c.Holds(map[string]string{"anaphylaxis": "Yes"}) {
		t.Error("notEquals should fail on a matching answer")
	}
	if !(Condition{ScreenID: "x"}).Holds(nil) {
		t.Error("an empty condition should hold")
	}
}

func TestFlow_AdvanceRetreat(t *testing.T) {
	f := DefaultFlow()
	idx := func(id string) int {
		i, ok := f.Lookup(id)
		if !ok {
			t.Fatalf("no screen %q", id)
		}
		return i
	}
	yes := map[string]string{"anaphylaxis": "Yes", "anaphylaxis-cause-known": "No"}
	no := map[string]string{"anaphylaxis": "No"}

	tests := []struct {
		name   string
		got    int
		wantID string
	}{
		{"dob to anaphylaxis", f.Advance(idx("dob"), nil), "anaphylaxis"},
		{"yes branch opens", f.Advance(idx("anaphylaxis"), yes), "anaphylaxis-er"},
		{"no branch skips yes path", f.Advance(idx("anaphylaxis"), no), "allergic-symptoms"},
		{"yes branch skips no path", f.Advance(idx("anaphylaxis-cause-known"), yes), "severe-allergy-diagnosis"},
		{"retreat into no branch", f.Retreat(idx("severe-allergy-diagnosis"), no), "epi-use-dates"},
		{"retreat into yes branch", f.Retreat(idx("severe-allergy-diagnosis"), yes), "anaphylaxis-cause-known"},
		{"unanswered hides both branches", f.Advance(idx("anaphylaxis"), nil), "severe-allergy-diagnosis"},
		{"advance stops at last", f.Advance(f.Len()-1, nil), "checkout"},
		{"retreat stops at first", f.Retreat(0, nil), "landing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Screen(tt.got).ID; got != tt.wantID {
				t.Errorf("landed on %q, want %q", got, tt.wantID)
			}
		})
	}
}

func TestFlow_NoVisibleScreenAheadStaysPut(t *testing.T) {
	f := NewFlow([]Screen{
		{ID: "a", Type: ScreenYesNo},
		{ID: "b", Type: ScreenYesNo, ShowIf: Rule{Equals("a", "Yes")}},
		{ID: "c", Type: ScreenYesNo, ShowIf: Rule{Equals("a", "Yes")}},
	})
	if got := f.Advance(0, map[string]string{"a": "No"}); got != 0 {
		t.Errorf("Advance = %d, want 0", got)
	}
	if got := f.Retreat(2, map[string]string{"a": "No"}); got != 0 {
		t.Errorf("Retreat = %d, want 0", got)
	}
}

// Every combination of the branching answers: movement never lands on a
// hidden screen and never leaves the sequence.
func TestFlow_NeverLandsOnHiddenScreen(t *testing.T) {
	f := DefaultFlow()
	branching := []string{"anaphylaxis", "anaphylaxis-epi-use", "anaphylaxis-cause-known", "prescribed-epi", "sees-doctor-allergies"}
	values := []string{"", "Yes", "No"}

	combos := 1
	for range branching {
		combos *= len(values)
	}
	for n := 0; n < combos; n++ {
		answers := map[string]string{}
		k := n
		for _, id := range branching {
			if v := values[k%len(values)]; v != "" {
				answers[id] = v
			}
			k /= len(values)
		}

		for cur := 0; cur < f.Len(); cur++ {
			for _, got := range []int{f.Advance(cur, answers), f.Retreat(cur, answers)} {
				if got < 0 || got >= f.Len() {
					t.Fatalf("answers %v from %d: out of range %d", answers, cur, got)
				}
				if got != cur && !f.IsVisible(got, answers) {
					t.Fatalf("answers %v from %d: landed on hidden %q", answers, cur, f.Screen(got).ID)
				}
			}
		}
	}
}

func TestFlow_VisibleStepCountFollowsAnswers(t *testing.T) {
	f := DefaultFlow()

	tests := []struct {
		name    string
		answers map[string]string
		want    int
	}{
		{"unanswered", map[string]string{}, 22},
		{"anaphylaxis yes", map[string]string{"anaphylaxis": "Yes"}, 25},
		{"anaphylaxis yes with epinephrine", map[string]string{"anaphylaxis": "Yes", "anaphylaxis-epi-use": "Yes"}, 26},
		{"anaphylaxis no", map[string]string{"anaphylaxis": "No"}, 26},
		{"sees a doctor", map[string]string{"sees-doctor-allergies": "Yes"}, 24},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.VisibleStepCount(tt.answers); got != tt.want {
				t.Errorf("VisibleStepCount = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFlow_VisibleStepIndex(t *testing.T) {
	f := DefaultFlow()
	i, _ := f.Lookup("severe-allergy-diagnosis")

	if got := f.VisibleStepIndex(i, map[string]string{"anaphylaxis": "No"}); got != 8 {
		t.Errorf("no branch index = %d, want 8", got)
	}
	if got := f.VisibleStepIndex(i, map[string]string{}); got != 4 {
		t.Errorf("unanswered index = %d, want 4", got)
	}
	if got := f.VisibleStepIndex(0, nil); got != 0 {
		t.Errorf("first screen index = %d, want 0", got)
	}
}

func TestFlow_IndexOfAndClamp(t *testing.T) {
	f := DefaultFlow()
	if got := f.IndexOf(ScreenCheckout); got != 33 {
		t.Errorf("IndexOf(checkout) = %d, want 33", got)
	}
	if got := f.IndexOf("nope"); got != -1 {
		t.Errorf("IndexOf(unknown) = %d, want -1", got)
	}
	if f.Clamp(-5) != 0 || f.Clamp(100) != 33 || f.Clamp(7) != 7 {
		t.Error("Clamp did not bound the index")
	}
}

func TestRule_JSON(t *testing.T) {
	single, err := json.Marshal(Rule{Equals("anaphylaxis", "Yes")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(single) != `{"screenId":"anaphylaxis","equals":"Yes"}` {
		t.Errorf("single rule encoded as %s", single)
	}

	var r Rule
	if err := json.Unmarshal([]byte(`{"screenId":"a","notEquals":"No"}`), &r); err != nil {
		t.Fatalf("unmarshal object: %v", err)
	}
	if len(r) != 1 || r[0].NotEquals == nil || *r[0].NotEquals != "No" {
		t.Errorf("unexpected rule %+v", r)
	}
	if err := json.Unmarshal([]byte(`[{"screenId":"a","equals":"Yes"},{"screenId":"b","equals":"Yes"}]`), &r); err != nil {
		t.Fatalf("unmarshal array: %v", err)
	}
	if len(r) != 2 {
		t.Errorf("expected 2 conditions, got %d", len(r))
	}
}

func TestProjectQA_FollowsScreenOrder(t *testing.T) {
	answers := map[string]string{
		"why-neffy":      "Fear of needles",
		"anaphylaxis":    "No",
		"dob":            "01/02/1990",
		"allergen-types": "",
	}
	pairs := ProjectQA(Screens(), answers)
	if len(pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d: %+v", len(pairs), pairs)
	}
	if pairs[0].Answer != "No" || pairs[1].Answer != "Fear of needles" {
		t.Errorf("pairs out of order: %+v", pairs)
	}

	fields := QAFields(pairs)
	if fields["Q1"] != "Have you experienced anaphylaxis? POSSIBLE ANSWERS: Yes; No" || fields["A2"] != "Fear of needles" {
		t.Errorf("unexpected fields %v", fields)
	}
	if len(fields) != 4 {
		t.Errorf("expected 4 fields, got %d", len(fields))
	}
}

func TestProductByID(t *testing.T) {
	p, ok := ProductByID(DefaultPlanID)
	if !ok {
		t.Fatal("expected default plan")
	}
	if p.TotalPrice != 199 || p.Duration != 12 || p.Medication.MedID != "NEFFY_2PACK_PLACEHOLDER" {
		t.Errorf("unexpected product %+v", p)
	}
	if _, ok := ProductByID("neffy_4pack"); ok {
		t.Error("medication ids are not plans")
	}
}
