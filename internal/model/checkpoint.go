package model

// Checkpoint ties a trigger question to the question play resumes at once
// the gate is scanned. Index is the 1-based number printed on the physical
// checkpoint placard.
type Checkpoint struct {
	Trigger int
	Index   int
	Resume  int
}

// CheckpointPlan is the ordered set of gates for a hunt. The plan is data,
// not arithmetic: inserting or removing questions means editing the plan.
type CheckpointPlan []Checkpoint

// DefaultCheckpointPlan places three gates after questions 4, 8 and 12,
// resuming at 5, 9 and 13.
func DefaultCheckpointPlan() CheckpointPlan {
	return CheckpointPlan{
		{Trigger: 4, Index: 1, Resume: 5},
		{Trigger: 8, Index: 2, Resume: 9},
		{Trigger: 12, Index: 3, Resume: 13},
	}
}

// ByTrigger returns the checkpoint armed by a correct answer to the given
// question, if any.
func (p CheckpointPlan) ByTrigger(questionNumber int) (Checkpoint, bool) {
	for _, cp := range p {
		if cp.Trigger == questionNumber {
			return cp, true
		}
	}
	return Checkpoint{}, false
}

// ByIndex returns the checkpoint with the given placard number, if any.
func (p CheckpointPlan) ByIndex(index int) (Checkpoint, bool) {
	for _, cp := range p {
		if cp.Index == index {
			return cp, true
		}
	}
	return Checkpoint{}, false
}
