package morphology

// Class tags a morpheme as prefix, stem or suffix. Classes index emission
// table rows directly, so the zero value is meaningful.
type Class int

const (
	Prefix Class = iota
	Stem
	Suffix

	NumClasses = 3
)

func (c Class) String() string {
	switch c {
	case Prefix:
		return "prefix"
	case Stem:
		return "stem"
	case Suffix:
		return "suffix"
	}
	return "?"
}

// State is a node of the segmentation grammar. A legal segmentation walks
// start -> prefix* -> stem -> suffix* -> end.
type State int

const (
	StateStart State = iota
	StatePrefix
	StateStem
	StateSuffix
	StateEnd

	NumStates = 5
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "START"
	case StatePrefix:
		return "prefix"
	case StateStem:
		return "stem"
	case StateSuffix:
		return "suffix"
	case StateEnd:
		return "END"
	}
	return "?"
}

// ClassState maps a morph class to its grammar state.
func ClassState(c Class) State {
	return State(c) + 1
}

// StateClass maps an emitting grammar state back to its morph class.
// Only valid for StatePrefix, StateStem and StateSuffix.
func StateClass(s State) Class {
	return Class(s - 1)
}

// legalNext lists the grammar edges. Anything not listed here keeps a zero
// transition probability forever; smoothing only redistributes mass inside
// a row's legal edges.
var legalNext = [NumStates][]State{
	StateStart:  {StatePrefix, StateStem},
	StatePrefix: {StatePrefix, StateStem},
	StateStem:   {StateSuffix, StateEnd},
	StateSuffix: {StateSuffix, StateEnd},
	StateEnd:    nil,
}

var emittingStates = []State{StatePrefix, StateStem, StateSuffix}
