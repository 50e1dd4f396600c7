package security

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/oy3o/pwscore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecretStrengthChecker(t *testing.T) {
	eval, err := pwscore.New()
	require.NoError(t, err)

	tests := []struct {
		name     string
		secret   string
		minScore int
		passed   bool
	}{
		{"Strong passphrase", "correct-Horse7battery!Staple", 6, true},
		{"Empty secret", "", 6, false},
		{"Common password", "letmein", 1, false},
		{"Short secret", "Ab1!", 6, false},
		{"Low bar", "Ab1!", 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &SecretStrengthChecker{
				NameID:    "monitor",
				Secret:    tt.secret,
				MinScore:  tt.minScore,
				Evaluator: eval,
				Severity:  SeverityFatal,
			}
			res := c.Check(context.Background())
			assert.Equal(t, tt.passed, res.Passed, "Message: %s", res.Message)
			assert.Equal(t, "secret_strength:monitor", res.Name)
		})
	}

	t.Run("Should explain the failure without echoing the secret", func(t *testing.T) {
		c := &SecretStrengthChecker{NameID: "monitor", Secret: "letmein", MinScore: 6, Evaluator: eval, Severity: SeverityWarn}
		res := c.Check(context.Background())
		assert.False(t, res.Passed)
		assert.Equal(t, SeverityWarn, res.Severity)
		assert.Contains(t, res.Message, "Very Weak")
		assert.Contains(t, res.Message, pwscore.FeedbackCommon)
		assert.NotContains(t, res.Message, "letmein")
	})
}

type fakeReferenceData struct{ common, keyboard int }

func (f fakeReferenceData) CommonCount() int   { return f.common }
func (f fakeReferenceData) KeyboardCount() int { return f.keyboard }

func TestWordlistChecker(t *testing.T) {
	c := &WordlistChecker{Data: fakeReferenceData{common: 9, keyboard: 6}, Severity: SeverityWarn}
	assert.True(t, c.Check(context.Background()).Passed)

	c.Data = fakeReferenceData{common: 0, keyboard: 6}
	res := c.Check(context.Background())
	assert.False(t, res.Passed)
	assert.Equal(t, SeverityWarn, res.Severity)
	assert.Contains(t, res.Message, "common passwords")
	assert.NotContains(t, res.Message, "keyboard")

	eval, err := pwscore.New(pwscore.WithKeyboardPatterns([]string{}))
	require.NoError(t, err)
	res = (&WordlistChecker{Data: eval}).Check(context.Background())
	assert.False(t, res.Passed)
	assert.Contains(t, res.Message, "keyboard patterns")
}

func TestFilePermChecker(t *testing.T) {
	path := filepath.Join(t.TempDir(), "common.txt")
	require.NoError(t, os.WriteFile(path, []byte("letmein\n"), 0o644))

	t.Run("Should pass on read-only for others", func(t *testing.T) {
		c := &FilePermChecker{Path: path, MaxPerm: 0o644}
		assert.True(t, c.Check(context.Background()).Passed)
	})

	t.Run("Should fail when others can write", func(t *testing.T) {
		require.NoError(t, os.Chmod(path, 0o666))
		c := &FilePermChecker{Path: path, MaxPerm: 0o644, Severity: SeverityFatal}
		res := c.Check(context.Background())
		assert.False(t, res.Passed)
		assert.Contains(t, res.Message, "Insecure permissions")
	})

	t.Run("Should fail if file does not exist", func(t *testing.T) {
		c := &FilePermChecker{Path: filepath.Join(t.TempDir(), "missing.txt"), MaxPerm: 0o644}
		res := c.Check(context.Background())
		assert.False(t, res.Passed)
		assert.Contains(t, res.Message, "not found")
		assert.Error(t, res.Error)
	})
}

func TestBindAddrChecker(t *testing.T) {
	tests := []struct {
		name        string
		addr        string
		allowPublic bool
		passed      bool
	}{
		{"Localhost Allowed", "127.0.0.1:8080", false, true},
		{"Public Bind Blocked", "0.0.0.0:8080", false, false},
		{"Public Bind Allowed", "0.0.0.0:8080", true, true},
		{"IPv6 Any Blocked", "[::]:8080", false, false},
		{"Short Port Blocked", ":8080", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &BindAddrChecker{Addr: tt.addr, AllowPublic: tt.allowPublic}
			assert.Equal(t, tt.passed, c.Check(context.Background()).Passed)
		})
	}
}
