package utils

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetLogLevel(t *testing.T) {
	defer Log.SetLevel(logrus.InfoLevel)

	if err := SetLogLevel("WARN"); err != nil || Log.GetLevel() != logrus.WarnLevel {
		t.Fatalf("expected warn level, got %v (%v)", Log.GetLevel(), err)
	}
	if err := SetLogLevel("verbose"); err == nil {
		t.Fatalf("expected an error for an unknown level")
	}
}

func TestIsIPAndCIDR(t *testing.T) {
	if !IsIP("185.220.101.1") || !IsIP("[2001:db8::1]") || IsIP("example.com") {
		t.Fatalf("IsIP misclassified input")
	}
	if !IsCIDR("45.9.148.0/24") || IsCIDR("45.9.148.0") {
		t.Fatalf("IsCIDR misclassified input")
	}
}

func TestDBLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.sqlite")
	lock, err := NewDBLock(path)
	if err != nil {
		t.Fatalf("NewDBLock: %v", err)
	}
	if err := lock.Lock(); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if err := lock.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
}
