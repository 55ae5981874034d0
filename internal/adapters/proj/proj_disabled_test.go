//go:build !proj

package proj_test

import (
	"errors"
	"testing"

	"github.com/samirrijal/elevprofile/internal/adapters/proj"
)

func TestNewConverter_NotBuilt(t *testing.T) {
	if proj.Available {
		t.Fatal("Available should be false without the proj tag")
	}
	if _, err := proj.NewConverter(); !errors.Is(err, proj.ErrNotBuilt) {
		t.Fatalf("NewConverter() error = %v, want ErrNotBuilt", err)
	}
}
