package game

import (
	"bytes"
	"fmt"
)

// Judgment is the host's verdict on one submission. Zero value is Unjudged.
type Judgment int8

const (
	Unjudged Judgment = iota
	Correct
	Incorrect
)

func JudgmentOf(correct bool) Judgment {
	if correct {
		return Correct
	}
	return Incorrect
}

func (j Judgment) String() string {
	switch j {
	case Correct:
		return "correct"
	case Incorrect:
		return "incorrect"
	default:
		return "unjudged"
	}
}

// MarshalJSON encodes the tri-state as true, false or null.
func (j Judgment) MarshalJSON() ([]byte, error) {
	switch j {
	case Correct:
		return []byte("true"), nil
	case Incorrect:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

func (j *Judgment) UnmarshalJSON(b []byte) error {
	switch {
	case bytes.Equal(b, []byte("true")):
		*j = Correct
	case bytes.Equal(b, []byte("false")):
		*j = Incorrect
	case bytes.Equal(b, []byte("null")):
		*j = Unjudged
	default:
		return fmt.Errorf("game: invalid judgment %s", b)
	}
	return nil
}
