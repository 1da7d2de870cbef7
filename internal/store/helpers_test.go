package store

import (
	"syscall"
	"testing"
)

func getenvOrSkip(t *testing.T, key string) string {
	t.Helper()
	v := ""
	if val, ok := syscall.Getenv(key); ok {
		v = val
	}
	if v == "" {
		t.Skipf("env %s not set", key)
	}
	return v
}
