package audit

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogKeepsAppendOrderAndDuplicates(t *testing.T) {
	l := New(nil)
	l.Add("loaded")
	l.Addf("imputed %d columns", 2)
	l.Add("loaded")

	assert.Equal(t, []string{"loaded", "imputed 2 columns", "loaded"}, l.Entries())
	assert.Equal(t, 3, l.Len())
}

func TestEntriesReturnsCopy(t *testing.T) {
	l := New(nil)
	l.Add("a")
	got := l.Entries()
	got[0] = "mutated"
	assert.Equal(t, "a", l.Entries()[0])
}

func TestLogMirrorsToLogger(t *testing.T) {
	logger, hook := test.NewNullLogger()
	l := New(logger.WithField("session", "s1"))
	calls := 0
	l.OnAppend(func() { calls++ })

	l.Add("first")
	l.Warnf("fell back to %s", "mean")

	require.Len(t, hook.Entries, 2)
	assert.Equal(t, logrus.InfoLevel, hook.Entries[0].Level)
	assert.Equal(t, 0, hook.Entries[0].Data["seq"])
	assert.Equal(t, "s1", hook.Entries[0].Data["session"])
	assert.Equal(t, logrus.WarnLevel, hook.Entries[1].Level)
	assert.Equal(t, "fell back to mean", hook.Entries[1].Message)
	assert.Equal(t, 2, calls)
}

func TestNilLogIsInert(t *testing.T) {
	var l *Log
	l.Add("ignored")
	assert.Equal(t, 0, l.Len())
	assert.Nil(t, l.Entries())
}
