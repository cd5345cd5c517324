package ewf

import "github.com/sirupsen/logrus"

// Logger is the minimal structured-logging surface the writer needs.
// *logrus.Logger and *logrus.Entry both satisfy it.
type Logger interface {
	WithFields(fields logrus.Fields) *logrus.Entry
}

func newDefaultLogger() Logger {
	l := logrus.New()
	l.SetLevel(logrus.InfoLevel)
	return l
}
