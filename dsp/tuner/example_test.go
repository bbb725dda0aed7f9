package tuner_test

import (
	"fmt"

	"github.com/cwbudde/algo-tuner/dsp/tuner"
)

func ExampleTemperament_Note() {
	n, err := tuner.TET12.Note(110, tuner.DefaultReference)
	if err != nil {
		panic(err)
	}

	fmt.Printf("%s %+.1f cents\n", n.Name(), n.Cents)

	n, err = tuner.TET24.Note(452, tuner.DefaultReference)
	if err != nil {
		panic(err)
	}

	fmt.Printf("%s %+.1f cents\n", n.Name(), n.Cents)
	// Output:
	// A2 +0.0 cents
	// A4+ -3.4 cents
}

func ExampleParseTemperament() {
	t, err := tuner.ParseTemperament("19-TET")
	if err != nil {
		panic(err)
	}

	fmt.Println(t, t.Steps())
	// Output: 19-TET 19
}
