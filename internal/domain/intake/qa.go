package intake

import "strconv"

// QAPair is one answered question as the clinical intake API receives it.
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ProjectQA walks screens in order and emits a pair for every screen that
// carries a question key and has a non-empty answer. Order follows the
// screens, never the map.
func ProjectQA(screens []Screen, answers map[string]string) []QAPair {
	var out []QAPair
	for _, s := range screens {
		if s.QuestionKey == "" {
			continue
		}
		if a := answers[s.ID]; a != "" {
			out = append(out, QAPair{Question: s.QuestionKey, Answer: a})
		}
	}
	return out
}

// QAFields numbers pairs from 1 as Q{n}/A{n} keys.
func QAFields(pairs []QAPair) map[string]string {
	out := make(map[string]string, 2*len(pairs))
	for i, p := range pairs {
		n := strconv.Itoa(i + 1)
		out["Q"+n] = p.Question
		out["A"+n] = p.Answer
	}
	return out
}
