package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"go.viam.com/test"
)

// splitLogLine splits a console line into its tab delimited parts.
func splitLogLine(t *testing.T, actual *bytes.Buffer) []string {
	t.Helper()
	output, err := actual.ReadString('\n')
	test.That(t, err, test.ShouldBeNil)
	return strings.Split(strings.TrimSuffix(output, "\n"), "\t")
}

func TestConsoleOutputFormat(t *testing.T) {
	notStdout := &bytes.Buffer{}
	logger := &impl{
		name:      "detector",
		level:     NewAtomicLevelAt(DEBUG),
		inUTC:     true,
		appenders: []Appender{NewWriterAppender(notStdout)},
	}

	logger.Info("built scale space")
	parts := splitLogLine(t, notStdout)
	test.That(t, parts, test.ShouldHaveLength, 5)
	test.That(t, len(parts[0]), test.ShouldEqual, len("2024-01-23T14:26:57.843Z"))
	test.That(t, parts[1], test.ShouldEqual, "INFO")
	test.That(t, parts[2], test.ShouldEqual, "detector")
	test.That(t, parts[3], test.ShouldStartWith, "logging/impl_test.go:")
	test.That(t, parts[4], test.ShouldEqual, "built scale space")

	logger.Debugf("octave %d", 3)
	parts = splitLogLine(t, notStdout)
	test.That(t, parts[1], test.ShouldEqual, "DEBUG")
	test.That(t, parts[4], test.ShouldEqual, "octave 3")

	logger.Warnw("candidates", "count", 12, "octave", 1)
	parts = splitLogLine(t, notStdout)
	test.That(t, parts, test.ShouldHaveLength, 6)
	fields := map[string]any{}
	test.That(t, json.Unmarshal([]byte(parts[5]), &fields), test.ShouldBeNil)
	test.That(t, fields, test.ShouldResemble, map[string]any{"count": 12.0, "octave": 1.0})
}

func TestLevelFiltering(t *testing.T) {
	notStdout := &bytes.Buffer{}
	logger := &impl{
		name:      "",
		level:     NewAtomicLevelAt(WARN),
		inUTC:     true,
		appenders: []Appender{NewWriterAppender(notStdout)},
	}

	logger.Debug("dropped")
	logger.Info("dropped")
	test.That(t, notStdout.Len(), test.ShouldEqual, 0)

	logger.Error("kept")
	parts := splitLogLine(t, notStdout)
	test.That(t, parts[1], test.ShouldEqual, "ERROR")

	logger.SetLevel(DEBUG)
	test.That(t, logger.GetLevel(), test.ShouldEqual, DEBUG)
	logger.Debug("now kept")
	parts = splitLogLine(t, notStdout)
	test.That(t, parts[len(parts)-1], test.ShouldEqual, "now kept")
}

func TestSublogger(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)
	sub := logger.Sublogger("sift").Sublogger("orientation")
	sub.Infow("peaks", "n", 2)

	entries := observed.All()
	test.That(t, entries, test.ShouldHaveLength, 1)
	test.That(t, entries[0].LoggerName, test.ShouldEqual, "sift.orientation")
	test.That(t, entries[0].Message, test.ShouldEqual, "peaks")
	test.That(t, entries[0].ContextMap()["n"], test.ShouldEqual, int64(2))
	test.That(t, sub.Sync(), test.ShouldBeNil)
}

func TestUnpairedKey(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)
	logger.Debugw("oops", "lonely")
	entries := observed.FilterMessage("oops").All()
	test.That(t, entries, test.ShouldHaveLength, 1)
	test.That(t, entries[0].ContextMap()["lonely"], test.ShouldNotBeNil)
}

func TestLevelFromString(t *testing.T) {
	for _, tc := range []struct {
		in       string
		expected Level
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"Warn", WARN},
		{"warning", WARN},
		{"error", ERROR},
	} {
		level, err := LevelFromString(tc.in)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, level, test.ShouldEqual, tc.expected)
		test.That(t, level.AsZap().String(), test.ShouldEqual, level.String())
	}
	_, err := LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)
}
