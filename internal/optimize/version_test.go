package optimize

import "testing"

func TestNextVersionSemverPatchBump(t *testing.T) {
	cases := []struct {
		parent string
		want   string
	}{
		{"v1.0.0", "v1.0.1"},
		{"v1.0.9", "v1.0.10"},
		{"v2.3.4", "v2.3.5"},
		{"v1.2", "v1.2.1"}, // canonicalized before bumping
	}
	for _, tc := range cases {
		if got := NextVersion(tc.parent, 1); got != tc.want {
			t.Errorf("NextVersion(%q, 1) = %q, want %q", tc.parent, got, tc.want)
		}
	}
}

func TestNextVersionFallbackSuffix(t *testing.T) {
	cases := []struct {
		parent    string
		iteration int
		want      string
	}{
		{"1.0.0", 1, "1.0.0-iter2"},              // no leading v: not semver
		{"baseline", 2, "baseline-iter3"},
		{"v1.0.0-beta", 1, "v1.0.0-beta-iter2"},  // prerelease: bump is ambiguous
	}
	for _, tc := range cases {
		if got := NextVersion(tc.parent, tc.iteration); got != tc.want {
			t.Errorf("NextVersion(%q, %d) = %q, want %q", tc.parent, tc.iteration, got, tc.want)
		}
	}
}

func TestCompareVersions(t *testing.T) {
	if CompareVersions("v1.0.2", "v1.0.10") >= 0 {
		t.Error("semver pairs must compare numerically, not lexically")
	}
	if CompareVersions("abc", "abd") >= 0 {
		t.Error("non-semver pairs fall back to lexical order")
	}
	if CompareVersions("v1.0.0", "v1.0.0") != 0 {
		t.Error("equal versions must compare as 0")
	}
}
