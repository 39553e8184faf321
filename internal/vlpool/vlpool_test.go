package vlpool

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingWorker struct {
	stepsNeeded int
	steps       int
}

func (w *countingWorker) Step() (Finished, error) {
	w.steps++
	if w.steps >= w.stepsNeeded {
		return Done, nil
	}
	return NotDone, nil
}

func TestDriveFinishesWorkerAcrossMultipleCalls(t *testing.T) {
	p := New(nil)
	w := &countingWorker{stepsNeeded: 3}
	p.Submit(w)

	spent := p.Drive(1)
	assert.Equal(t, 1, spent)
	assert.Equal(t, 1, p.Len()) // not finished, carried over

	p.Drive(1)
	p.Drive(1)
	assert.Equal(t, 0, p.Len())
	assert.Equal(t, 3, w.steps)
}

func TestDriveRespectsBudgetAcrossManyWorkers(t *testing.T) {
	p := New(nil)
	workers := make([]*countingWorker, 10)
	for i := range workers {
		workers[i] = &countingWorker{stepsNeeded: 5}
		p.Submit(workers[i])
	}

	spent := p.Drive(4)
	assert.Equal(t, 4, spent)
	assert.Equal(t, 10, p.Len()) // front worker still unfinished, the rest never touched
	assert.Equal(t, 4, workers[0].steps, "all of the budget must go to the front worker first")
	for i := 1; i < len(workers); i++ {
		assert.Equal(t, 0, workers[i].steps, "a worker behind the front one must not be touched until it finishes or errors")
	}
}

func TestDriveErrorRemovesWorkerAndCallsSink(t *testing.T) {
	var caught error
	p := New(func(err error) { caught = err })

	failing := failingWorker{err: errors.New("boom")}
	p.Submit(failing)

	spent := p.Drive(10)
	assert.Equal(t, 0, spent, "an errored worker is dropped without charging the budget")
	require.Error(t, caught)
	assert.Equal(t, 0, p.Len())
}

type failingWorker struct{ err error }

func (f failingWorker) Step() (Finished, error) { return NotDone, f.err }

func TestDriveDefaultBudget(t *testing.T) {
	p := New(nil)
	w := &countingWorker{stepsNeeded: 1}
	p.Submit(w)
	spent := p.Drive(0) // 0 means "use DefaultBudget"
	assert.Equal(t, 0, spent, "a worker that finishes on its first step never charges the budget")
	assert.Equal(t, 0, p.Len())
	assert.Equal(t, 1, w.steps)
}
