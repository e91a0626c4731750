// argreg_fuzz_test.go: Fuzz tests for argument classification
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package argreg

import (
	"strings"
	"testing"
)

// FuzzScan checks the classification invariants on arbitrary token lists.
// The fuzzer input is split on NUL to build the argument vector.
func FuzzScan(f *testing.F) {
	seeds := []string{
		"app\x00--port\x0080",
		"app\x00--a\x00--b\x00val",
		"app\x00--expr=a=b\x00tail",
		"app\x00-\x00-=\x00=",
		"",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, input string) {
		args := strings.Split(input, "\x00")
		reg := New(args)
		values := reg.Values()

		for key, val := range values {
			if !strings.HasPrefix(key, "-") {
				t.Fatalf("non-flag key %q recorded", key)
			}
			if strings.Contains(key, "=") {
				t.Fatalf("key %q contains '='", key)
			}
			// the value either came from key=val or from a following plain token
			if !reg.Present(key+"="+val) && (strings.HasPrefix(val, "-") || !reg.Present(val)) {
				t.Fatalf("value %q for %q has no source token", val, key)
			}
		}

		// Help must render without panicking and declare nothing
		_ = reg.Help()
		if len(reg.Schema()) != 0 {
			t.Fatal("Help declared flags")
		}
	})
}
