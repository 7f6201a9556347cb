package config_test

import "sync"

// fakeLogger is a minimal ports.Logger recorder used in place of a generated
// mock: the loader only ever calls Warn during these tests, so this keeps
// enough state to assert on it without pulling in a mocking framework.
type fakeLogger struct {
	mu     sync.Mutex
	warns  []string
	infos  []string
	errors []error
}

func newFakeLogger() *fakeLogger {
	return &fakeLogger{}
}

func (l *fakeLogger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, msg)
}

func (l *fakeLogger) Warn(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *fakeLogger) Error(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, err)
}

func (l *fakeLogger) Warnings() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.warns))
	copy(out, l.warns)
	return out
}
