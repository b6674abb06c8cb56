package vm

import (
	"testing"

	"github.com/cleardata/elsie16/internal/log"
)

func NewTestHarness(t *testing.T) *testHarness {
	t.Parallel()
	th := &testHarness{
		T: t,
	}
	th.log = log.NewFormattedLogger(th)

	return th
}

type testHarness struct {
	*testing.T
	log *log.Logger
}

func (t *testHarness) Make() *LC3 {
	opts := []OptionFn{
		WithLogger(t.log),
		WithSystemContext(),
	}
	vm := New(opts...)

	return vm
}

func (t *testHarness) Write(b []byte) (n int, err error) {
	if b[len(b)-1] == '\n' {
		t.Log(string(b[:len(b)-1]))
		return len(b), nil
	} else {
		t.Log(string(b))
		return len(b), nil
	}
}

func (t *testHarness) Log(args ...any) {
	t.T.Helper()
	t.T.Log(args...)
}
