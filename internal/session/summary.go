package session

// Summary holds the data displayed on the summary screen.
type Summary struct {
	Topic          string
	TotalQuestions int
	Answered       int
	Correct        int
	Accuracy       float64 // Correct / Answered, 0 when nothing was answered
}

// Summary totals the answers given so far.
func (s *State) Summary() Summary {
	sum := Summary{
		Topic:          s.Topic,
		TotalQuestions: len(s.Questions),
		Answered:       len(s.answers),
	}
	for _, a := range s.answers {
		if a.Correct {
			sum.Correct++
		}
	}
	if sum.Answered > 0 {
		sum.Accuracy = float64(sum.Correct) / float64(sum.Answered)
	}
	return sum
}
