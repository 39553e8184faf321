package exectx

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ChuLiYu/async-sched/pkg/types"
)

type fakeMonitor struct{ name string }

func (m *fakeMonitor) Name() string    { return m.name }
func (m *fakeMonitor) Send(err error) {}

func TestWithLocalDoesNotMutateParent(t *testing.T) {
	base := New(nil)
	derived := base.WithLocal("k", "v")

	_, foundOnBase := base.Local("k")
	assert.False(t, foundOnBase)

	v, foundOnDerived := derived.Local("k")
	assert.True(t, foundOnDerived)
	assert.Equal(t, "v", v)
}

func TestWithPriorityDerivesWithoutMutating(t *testing.T) {
	base := New(nil)
	assert.Equal(t, types.Normal, base.Priority())

	derived := base.WithPriority(types.High)
	assert.Equal(t, types.Normal, base.Priority())
	assert.Equal(t, types.High, derived.Priority())
}

func TestWithMonitorDerivesWithoutMutating(t *testing.T) {
	m1 := &fakeMonitor{name: "m1"}
	m2 := &fakeMonitor{name: "m2"}

	base := New(m1)
	derived := base.WithMonitor(m2)

	assert.Equal(t, "m1", base.Monitor().Name())
	assert.Equal(t, "m2", derived.Monitor().Name())
}

func TestOutcomeOk(t *testing.T) {
	assert.True(t, Outcome{}.Ok())
	assert.False(t, Outcome{Err: assertError{}}.Ok())
	assert.False(t, Outcome{Panicked: true}.Ok())
}

type assertError struct{}

func (assertError) Error() string { return "err" }
