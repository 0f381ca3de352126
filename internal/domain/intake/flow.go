package intake

// Flow evaluates movement through an ordered screen sequence. It holds no
// answers; every operation takes the current answer map, so visibility is
// always recomputed from scratch.
type Flow struct {
	screens []Screen
	index   map[string]int
}

// NewFlow builds a Flow over screens. The slice must not be modified
// afterwards.
func NewFlow(screens []Screen) *Flow {
	idx := make(map[string]int, len(screens))
	for i, s := range screens {
		idx[s.ID] = i
	}
	return &Flow{screens: screens, index: idx}
}

// DefaultFlow is the flow over the product questionnaire.
func DefaultFlow() *Flow { return NewFlow(Screens()) }

func (f *Flow) Len() int { return len(f.screens) }

func (f *Flow) Screens() []Screen { return f.screens }

// Screen returns the screen at i, clamped into range.
func (f *Flow) Screen(i int) Screen { return f.screens[f.Clamp(i)] }

// Lookup returns the position of the screen with the given id.
func (f *Flow) Lookup(id string) (int, bool) {
	i, ok := f.index[id]
	return i, ok
}

// IndexOf returns the first screen of type t, or -1.
func (f *Flow) IndexOf(t ScreenType) int {
	for i, s := range f.screens {
		if s.Type == t {
			return i
		}
	}
	return -1
}

// IsVisible reports whether screen i is shown for answers. Out-of-range
// indices are never visible.
func (f *Flow) IsVisible(i int, answers map[string]string) bool {
	if i < 0 || i >= len(f.screens) {
		return false
	}
	return f.screens[i].ShowIf.Holds(answers)
}

// Advance returns the first visible screen after cur. When no later screen
// is visible the position does not change.
func (f *Flow) Advance(cur int, answers map[string]string) int {
	cur = f.Clamp(cur)
	for next := cur + 1; next < len(f.screens); next++ {
		if f.IsVisible(next, answers) {
			return next
		}
	}
	return cur
}

// Retreat returns the nearest visible screen before cur, or cur when there
// is none.
func (f *Flow) Retreat(cur int, answers map[string]string) int {
	cur = f.Clamp(cur)
	for prev := cur - 1; prev >= 0; prev-- {
		if f.IsVisible(prev, answers) {
			return prev
		}
	}
	return cur
}

// Clamp bounds i to [0, Len()-1].
func (f *Flow) Clamp(i int) int {
	if i < 0 || len(f.screens) == 0 {
		return 0
	}
	if i >= len(f.screens) {
		return len(f.screens) - 1
	}
	return i
}

// VisibleStepCount is the number of screens currently visible.
func (f *Flow) VisibleStepCount(answers map[string]string) int {
	n := 0
	for i := range f.screens {
		if f.IsVisible(i, answers) {
			n++
		}
	}
	return n
}

// VisibleStepIndex is the zero-based position of cur among visible screens:
// the count of visible screens in [0, cur] minus one.
func (f *Flow) VisibleStepIndex(cur int, answers map[string]string) int {
	cur = f.Clamp(cur)
	n := 0
	for i := 0; i <= cur && i < len(f.screens); i++ {
		if f.IsVisible(i, answers) {
			n++
		}
	}
	return n - 1
}
