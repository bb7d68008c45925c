package domain

// Result is the terminal report of one download run. Outcomes is indexed by
// Segment.Index. Files lists the local paths of successful downloads in
// assembly order, with the init segment first when the manifest declared one.
type Result struct {
	Outcomes      []Outcome
	Files         []string
	InitPath      string
	Completed     int
	Failed        int
	FailedIndices []int
}

// Complete reports whether every segment (and the init segment, if any) was
// downloaded.
func (r *Result) Complete() bool {
	return r.Failed == 0
}
