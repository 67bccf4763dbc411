package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"kllc.dev/kllc/internal/engine"
	kllcerrors "kllc.dev/kllc/internal/errors"
)

func TestClassifyBranch(t *testing.T) {
	cases := map[string]engine.BranchKind{
		"feature/123-login": engine.BranchFeature,
		"feature/1-x":       engine.BranchFeature,
		"feature/abc":       engine.BranchNonFeature,
		"feature/123-":      engine.BranchNonFeature,
		"feature/123":       engine.BranchNonFeature,
		"main":              engine.BranchNonFeature,
		"":                  engine.BranchNonFeature,
		"bugfix/12-crash":   engine.BranchNonFeature,
	}
	for name, want := range cases {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, want, engine.ClassifyBranch(name))
		})
	}
}

func TestSlug(t *testing.T) {
	t.Run("sanitizes last segment", func(t *testing.T) {
		slug, err := engine.Slug("https://x.io/specs/My Cool Feature!")
		require.NoError(t, err)
		require.Equal(t, "my-cool-feature-", slug)
	})

	t.Run("keeps dashes and digits", func(t *testing.T) {
		slug, err := engine.Slug("https://docs.example.com/prd/Login-V2")
		require.NoError(t, err)
		require.Equal(t, "login-v2", slug)
	})

	t.Run("trailing slash yields feature", func(t *testing.T) {
		slug, err := engine.Slug("https://docs.example.com/prd/")
		require.NoError(t, err)
		require.Equal(t, engine.EmptySlug, slug)
	})

	t.Run("links need not be absolute urls", func(t *testing.T) {
		cases := map[string]string{
			"wiki/My-Page":                "my-page",
			"docs.example.com/prd/Login":  "login",
			"https://x.io/specs/100%done": "100-done",
			"PRD in the wiki":             "prd-in-the-wiki",
			"http://[::1":                 "---1",
			"https://x.io/prd?id=7#intro": "prd-id-7-intro",
		}
		for link, want := range cases {
			slug, err := engine.Slug(link)
			require.NoError(t, err, link)
			require.Equal(t, want, slug, link)
		}
	})

	t.Run("unextractable links fail", func(t *testing.T) {
		for _, link := range []string{"", "https://x.io/\x00login", "https://x.io/bad\xff", "https://x.io/a\nb"} {
			_, err := engine.Slug(link)
			require.ErrorIs(t, err, kllcerrors.ErrLinkParse, "%q", link)
		}
	})
}

func TestNames(t *testing.T) {
	require.Equal(t, "feature/42-my-cool-feature-", engine.FeatureBranchName("42", "my-cool-feature-"))
	require.Equal(t, "feat(42): update for development", engine.CommitMessage("42", "development"))
	require.Equal(t, "feat(0000): update for development", engine.CommitMessage("", "development"))

	at := time.Date(2024, time.March, 5, 9, 7, 0, 0, time.Local)
	require.Equal(t, "test-feature/42-0305-09-07", engine.TagName("test", "42", at))
	require.Equal(t, "stage-feature/0000-0305-09-07", engine.TagName("stage", "", at))
}

func TestCatalog(t *testing.T) {
	seq := engine.Sequence()
	require.Len(t, seq, engine.StepCount())
	require.Equal(t, engine.StepTechDesign, seq[0].ID())
	require.Equal(t, engine.KindTerminal, seq[len(seq)-1].Kind())

	step, index, ok := engine.LookupStep(engine.StepSelfTest)
	require.True(t, ok)
	require.Equal(t, 3, index)
	require.True(t, step.Required())

	_, index, ok = engine.LookupStep(engine.StepPrd)
	require.True(t, ok)
	require.Equal(t, -1, index)

	_, _, ok = engine.LookupStep("nope")
	require.False(t, ok)
}
