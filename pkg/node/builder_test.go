package node

import "testing"

func TestBuildWithNoModulesPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected Build with zero modules to panic")
		}
	}()

	NewBuilder().Build()
}

func TestBuildWithAModuleSucceeds(t *testing.T) {
	n, err := NewBuilder().WithModule(stubModuleForTest{}).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if n == nil {
		t.Fatalf("expected a non-nil node")
	}
}
