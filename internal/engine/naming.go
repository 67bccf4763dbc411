package engine

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	kllcerrors "kllc.dev/kllc/internal/errors"
)

var (
	featureBranchPattern = regexp.MustCompile(`^feature/\d+-.+$`)
	meegleIDPattern      = regexp.MustCompile(`^\d+$`)
	slugUnsafe           = regexp.MustCompile(`[^a-zA-Z0-9-]`)
)

const (
	// FallbackSlug is used when no segment can be extracted from the PRD link
	FallbackSlug = "new-feature"
	// EmptySlug is used when the PRD link ends in "/"
	EmptySlug = "feature"
	// UnknownMeegleID stands in for a missing meegle id in commit messages
	UnknownMeegleID = "0000"
)

// ClassifyBranch reports whether name is a feature branch
func ClassifyBranch(name string) BranchKind {
	if featureBranchPattern.MatchString(name) {
		return BranchFeature
	}
	return BranchNonFeature
}

// Slug derives a branch slug from the last '/'-delimited segment of a PRD
// link. The link need not be a URL. Characters outside [a-zA-Z0-9-] become
// '-' and the result is lowercased. Empty input, invalid UTF-8 and control
// characters fail with ErrLinkParse; callers fall back to FallbackSlug.
func Slug(prdLink string) (string, error) {
	if prdLink == "" {
		return "", fmt.Errorf("%w: empty link", kllcerrors.ErrLinkParse)
	}
	if !utf8.ValidString(prdLink) {
		return "", fmt.Errorf("%w: link is not valid UTF-8", kllcerrors.ErrLinkParse)
	}
	if strings.IndexFunc(prdLink, unicode.IsControl) >= 0 {
		return "", fmt.Errorf("%w: link contains control characters", kllcerrors.ErrLinkParse)
	}

	last := prdLink[strings.LastIndex(prdLink, "/")+1:]
	if last == "" {
		return EmptySlug, nil
	}
	return strings.ToLower(slugUnsafe.ReplaceAllString(last, "-")), nil
}

// FeatureBranchName builds feature/<meegleID>-<slug>
func FeatureBranchName(meegleID, slug string) string {
	return fmt.Sprintf("feature/%s-%s", meegleID, slug)
}

// CommitMessage builds the conventional commit message for a step
func CommitMessage(meegleID, stepID string) string {
	if meegleID == "" {
		meegleID = UnknownMeegleID
	}
	return fmt.Sprintf("feat(%s): update for %s", meegleID, stepID)
}

// TagName builds <prefix>-feature/<meegleID>-<MMDD>-<hh>-<mm> in local time
func TagName(prefix, meegleID string, at time.Time) string {
	if meegleID == "" {
		meegleID = UnknownMeegleID
	}
	local := at.Local()
	return fmt.Sprintf("%s-feature/%s-%s", prefix, meegleID, local.Format("0102-15-04"))
}

// ValidMeegleID reports whether id is a non-empty string of digits
func ValidMeegleID(id string) bool {
	return meegleIDPattern.MatchString(id)
}
