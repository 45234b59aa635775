package stimulus_test

import (
	"os"
	"time"

	"github.com/gopheryan/stimulus/stimulus"
)

func ExampleEmitter() {
	e := stimulus.NewEmitter(os.Stdout, stimulus.WithSleep(func(time.Duration) {}))
	if err := e.Run(); err != nil {
		return
	}
	// Output:
	// testing.......done
}
