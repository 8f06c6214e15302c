// Copyright 2024 The RG Authors. All rights reserved.

package driver_test

import (
	"testing"

	"github.com/kestrelgx/rg/driver"
	_ "github.com/kestrelgx/rg/driver/fake"
)

func TestDrivers(t *testing.T) {
	drivers := driver.Drivers()
	if len(drivers) == 0 {
		t.Fatal("driver.Drivers: expected at least the fake driver to be registered")
	}
	for i := range drivers {
		name := drivers[i].Name()
		for j := range i {
			if name == drivers[j].Name() {
				t.Error("driver.Drivers: Driver.Name is not unique")
			}
		}
	}
	drivers2 := driver.Drivers()
	if len(drivers) != len(drivers2) {
		t.Error("driver.Drivers: length mismatch")
	} else {
		for i := range drivers {
			if drivers[i].Name() != drivers2[i].Name() {
				t.Error("driver.Drivers: Driver.Name mismatch")
			}
		}
	}
}

// replacementDriver lets the test register a second driver
// under the name "fake" to exercise Register's replace path.
type replacementDriver struct{ driver.Driver }

func (replacementDriver) Name() string { return "fake" }

func TestRegisterReplace(t *testing.T) {
	before := len(driver.Drivers())
	driver.Register(replacementDriver{})
	after := driver.Drivers()
	if len(after) != before {
		t.Fatalf("driver.Register: replacing an existing name changed the driver count: %d -> %d", before, len(after))
	}
	var found bool
	for _, d := range after {
		if d.Name() == "fake" {
			if _, ok := d.(replacementDriver); !ok {
				t.Error("driver.Register: existing driver was not replaced")
			}
			found = true
		}
	}
	if !found {
		t.Error("driver.Register: replaced driver missing from driver.Drivers()")
	}
}

func TestLayoutString(t *testing.T) {
	cases := map[driver.Layout]string{
		driver.LUndefined:   "undefined",
		driver.LColorTarget: "color-target",
		driver.LPresent:     "present",
		driver.Layout(999):  "layout(?)",
	}
	for l, want := range cases {
		if got := l.String(); got != want {
			t.Errorf("Layout(%d).String() = %q, want %q", l, got, want)
		}
	}
}
