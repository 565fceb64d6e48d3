package optimize

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// NextVersion derives the child prompt version from its parent. Semver
// parents get a patch bump so lineage ordering stays comparable with
// semver.Compare; anything else gets a deterministic iteration suffix.
func NextVersion(parent string, iteration int) string {
	if v, ok := bumpPatch(parent); ok {
		return v
	}
	return fmt.Sprintf("%s-iter%d", parent, iteration+1)
}

// nextFreeVersion probes storage for the first unused version derived from
// parent. Versions are append-only primary keys, so a re-run over the same
// base agent must skip past the versions earlier runs already claimed.
func (o *Optimizer) nextFreeVersion(ctx context.Context, parent string, iteration int) (string, error) {
	candidate := NextVersion(parent, iteration)
	for attempt := 1; ; attempt++ {
		existing, err := o.store.GetPrompt(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to probe prompt version %s: %w", candidate, err)
		}
		if existing == nil {
			return candidate, nil
		}
		if bumped, ok := bumpPatch(candidate); ok {
			candidate = bumped
			continue
		}
		candidate = fmt.Sprintf("%s-iter%d", parent, iteration+1+attempt)
	}
}

// nextFreeAgentKey probes storage for the first unused "<base>-opt<n>" key,
// starting the ordinal at the current iteration.
func (o *Optimizer) nextFreeAgentKey(ctx context.Context, baseKey string, iteration int) (string, error) {
	for n := iteration; ; n++ {
		candidate := fmt.Sprintf("%s-opt%d", baseKey, n)
		existing, err := o.store.GetAgent(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to probe agent key %s: %w", candidate, err)
		}
		if existing == nil {
			return candidate, nil
		}
	}
}

// CompareVersions orders two prompt versions. Valid semver pairs compare
// semantically; everything else falls back to lexical order so sorting
// stays total.
func CompareVersions(a, b string) int {
	if semver.IsValid(a) && semver.IsValid(b) {
		return semver.Compare(a, b)
	}
	return strings.Compare(a, b)
}

func bumpPatch(version string) (string, bool) {
	if !semver.IsValid(version) {
		return "", false
	}
	canonical := semver.Canonical(version)

	// Prerelease or build suffixes make a plain patch bump ambiguous
	if semver.Prerelease(canonical) != "" || semver.Build(version) != "" {
		return "", false
	}

	parts := strings.SplitN(strings.TrimPrefix(canonical, "v"), ".", 3)
	if len(parts) != 3 {
		return "", false
	}
	patch, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("v%s.%s.%d", parts[0], parts[1], patch+1), true
}
