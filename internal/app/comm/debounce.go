package comm

// DebounceState is the full internal state of a Debouncer. It is a value so
// callers can take it before an observation and restore it if the work that
// depended on the observation fails.
type DebounceState struct {
	Value      bool
	Count      int
	Fired      bool
	FiredValue bool
}

// Debouncer counts consecutive identical observations. Observe returns true
// exactly once per run that reaches the threshold, and never again for the
// same value until the opposite value has been confirmed.
type Debouncer struct {
	threshold int
	st        DebounceState
}

func NewDebouncer(threshold int) *Debouncer {
	if threshold < 1 {
		threshold = 1
	}
	return &Debouncer{threshold: threshold}
}

func (d *Debouncer) Observe(signal bool) bool {
	if d.st.Count == 0 || signal != d.st.Value {
		d.st.Value = signal
		d.st.Count = 1
	} else {
		d.st.Count++
	}

	if d.st.Count != d.threshold {
		return false
	}
	if d.st.Fired && d.st.FiredValue == signal {
		return false
	}
	d.st.Fired = true
	d.st.FiredValue = signal
	return true
}

// Value and Count describe the current run.
func (d *Debouncer) Value() bool { return d.st.Value }
func (d *Debouncer) Count() int  { return d.st.Count }

func (d *Debouncer) Threshold() int { return d.threshold }

func (d *Debouncer) State() DebounceState { return d.st }

func (d *Debouncer) Restore(st DebounceState) { d.st = st }

func (d *Debouncer) Reset() { d.st = DebounceState{} }
