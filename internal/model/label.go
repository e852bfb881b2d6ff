package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Label is the category an LLM answer maps to
type Label int

const (
	LabelError      Label = -1 // Generation failed upstream
	LabelNo         Label = 0
	LabelYes        Label = 1
	LabelContradict Label = 2 // First and last sentence disagree
	LabelNotSure    Label = 3
	LabelUndefined  Label = 4
)

// AllLabels lists every label in numeric order
var AllLabels = []Label{LabelError, LabelNo, LabelYes, LabelContradict, LabelNotSure, LabelUndefined}

func (l Label) String() string {
	switch l {
	case LabelError:
		return "error"
	case LabelNo:
		return "no"
	case LabelYes:
		return "yes"
	case LabelContradict:
		return "contradict"
	case LabelNotSure:
		return "not_sure"
	case LabelUndefined:
		return "undefined"
	default:
		return fmt.Sprintf("label(%d)", int(l))
	}
}

// ParseLabel parses the numeric form written to answer files. Float forms
// such as "1.0" are accepted since spreadsheet tools emit them.
func ParseLabel(s string) (Label, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return checkLabel(n)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return LabelUndefined, fmt.Errorf("invalid label %q", s)
	}
	return checkLabel(int(f))
}

func checkLabel(n int) (Label, error) {
	if n < int(LabelError) || n > int(LabelUndefined) {
		return LabelUndefined, fmt.Errorf("label out of range: %d", n)
	}
	return Label(n), nil
}
