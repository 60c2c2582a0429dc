package retry

import (
	"log"
	"time"
)

var (
	sleepBase   = time.Second * 5
	sleepJitter = time.Second
)

// Step is a named piece of bootstrap work.
type Step struct {
	Name string
	Do   func() error
}

// Run executes 'fn' up to 'tries' times, sleeping a bit longer
// after each failed attempt, failures are logged with 'reason'.
func Run(tries int, reason string, fn func() error) (err error) {
	for t := 0; t < tries; t++ {
		if err = fn(); err == nil {
			return nil
		}

		log.Printf("[retry] %s: try %d last err: %v", reason, t+1, err)
		time.Sleep(sleepBase + sleepJitter*time.Duration(t+1))
	}

	return err
}

// RunSteps executes several `steps` one by one, returns first error.
func RunSteps(tries int, steps []Step) (err error) {
	for i := 0; i < len(steps); i++ {
		step := &steps[i]

		if err = Run(tries, step.Name, step.Do); err != nil {
			return
		}
	}

	return
}
