// Copyright (c) 2023 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package semver

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		version           string
		wantErr           bool
		wantMajor         uint32
		wantMinor         uint32
		wantPatch         uint32
		wantPreRelease    string
		wantBuildMetadata string
	}{
		{version: "0.0.4", wantMajor: 0, wantMinor: 0, wantPatch: 4},
		{version: "1.2.3", wantMajor: 1, wantMinor: 2, wantPatch: 3},
		{
			version: "1.1.2-prerelease+meta", wantMajor: 1, wantMinor: 1, wantPatch: 2,
			wantPreRelease: "prerelease", wantBuildMetadata: "meta",
		},
		{version: "1.0.0-alpha", wantMajor: 1, wantPreRelease: "alpha"},
		{version: "1.0.0-alpha.beta.1", wantMajor: 1, wantPreRelease: "alpha.beta.1"},
		{
			version: "2.0.0-rc.1+build.123", wantMajor: 2,
			wantPreRelease: "rc.1", wantBuildMetadata: "build.123",
		},
		{version: "10.20.30", wantMajor: 10, wantMinor: 20, wantPatch: 30},
		{version: "1.0.0-0A.is.legal", wantMajor: 1, wantPreRelease: "0A.is.legal"},
		{version: "1", wantErr: true},
		{version: "1.2", wantErr: true},
		{version: "1.2.3-0123", wantErr: true},
		{version: "01.1.1", wantErr: true},
		{version: "alpha", wantErr: true},
		{version: "+justmeta", wantErr: true},
		{version: "9.8.7+meta+meta", wantErr: true},
		{version: "1.0.0-alpha_beta", wantErr: true},
	}

	for _, test := range tests {
		parsed, err := Parse(test.version)
		if test.wantErr != (err != nil) {
			t.Errorf("%q: unexpected error result -- got %v", test.version, err)
			continue
		}
		if err != nil {
			continue
		}
		if parsed.Major != test.wantMajor || parsed.Minor != test.wantMinor || parsed.Patch != test.wantPatch {
			t.Errorf("%q: unexpected version -- got %d.%d.%d, want %d.%d.%d",
				test.version, parsed.Major, parsed.Minor, parsed.Patch,
				test.wantMajor, test.wantMinor, test.wantPatch)
			continue
		}
		if parsed.PreRelease != test.wantPreRelease {
			t.Errorf("%q: unexpected prerelease -- got %s, want %s",
				test.version, parsed.PreRelease, test.wantPreRelease)
		}
		if parsed.BuildMetadata != test.wantBuildMetadata {
			t.Errorf("%q: unexpected build metadata -- got %s, want %s",
				test.version, parsed.BuildMetadata, test.wantBuildMetadata)
		}
	}
}
