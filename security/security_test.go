package security

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type MockChecker struct {
	NameVal   string
	ResultVal Result
	PanicVal  any
}

func (m *MockChecker) Name() string { return m.NameVal }
func (m *MockChecker) Check(_ context.Context) Result {
	if m.PanicVal != nil {
		panic(m.PanicVal)
	}
	return m.ResultVal
}

func TestManager_Run(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("Should pass when all checkers pass", func(t *testing.T) {
		mgr := New(&logger)
		mgr.Register(&MockChecker{
			NameVal:   "wordlist",
			ResultVal: Result{Name: "wordlist", Passed: true},
		})
		assert.NoError(t, mgr.Run(context.Background()))
	})

	t.Run("Should NOT return error on Info/Warn failures", func(t *testing.T) {
		mgr := New(&logger)
		mgr.Register(
			&MockChecker{
				NameVal:   "warn_check",
				ResultVal: Result{Name: "warn_check", Passed: false, Severity: SeverityWarn, Message: "warning"},
			},
			&MockChecker{
				NameVal:   "info_check",
				ResultVal: Result{Name: "info_check", Passed: false, Severity: SeverityInfo, Message: "info"},
			},
		)
		assert.NoError(t, mgr.Run(context.Background()), "Manager should only return error on Fatal severity")
	})

	t.Run("Should return error naming each fatal failure", func(t *testing.T) {
		mgr := New(&logger)
		mgr.Register(
			&MockChecker{
				NameVal:   "secret_strength:monitor",
				ResultVal: Result{Name: "secret_strength:monitor", Passed: false, Severity: SeverityFatal, Message: "too weak", Error: errors.New("oops")},
			},
			&MockChecker{
				NameVal:   "file_perm:/etc/common.txt",
				ResultVal: Result{Name: "file_perm:/etc/common.txt", Passed: false, Severity: SeverityFatal, Message: "writable"},
			},
		)

		err := mgr.Run(context.Background())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "2 fatal errors found")
		assert.Contains(t, err.Error(), "secret_strength:monitor: too weak")
		assert.Contains(t, err.Error(), "file_perm:/etc/common.txt: writable")
	})

	t.Run("Should treat a panicking checker as fatal", func(t *testing.T) {
		mgr := New(&logger)
		mgr.Register(&MockChecker{NameVal: "broken", PanicVal: "boom"})

		err := mgr.Run(context.Background())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "broken: panic: boom")
	})
}

func TestSeverity_String(t *testing.T) {
	assert.Equal(t, "INFO", SeverityInfo.String())
	assert.Equal(t, "WARN", SeverityWarn.String())
	assert.Equal(t, "FATAL", SeverityFatal.String())
	assert.Equal(t, "UNKNOWN", Severity(9).String())
}
