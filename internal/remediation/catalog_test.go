package remediation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/failfix/internal/classify"
)

func classificationOf(cats ...classify.Category) *classify.Classification {
	cls := &classify.Classification{}
	for _, c := range cats {
		cls.Issues = append(cls.Issues, classify.Issue{Category: c})
	}
	return cls
}

func titles(ds []Descriptor) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Title
	}
	return out
}

func TestDefault_AutoFixable(t *testing.T) {
	c := Default()

	want := map[classify.Category]bool{
		classify.CategoryQualityGate:           false,
		classify.CategoryTestFailure:           false,
		classify.CategoryBuildFailure:          true,
		classify.CategoryDependencyIssue:       true,
		classify.CategorySecurityVulnerability: true,
		classify.CategoryLintError:             true,
		classify.CategoryDockerIssue:           false,
	}
	for cat, auto := range want {
		d, ok := c.Lookup(cat)
		require.True(t, ok, cat)
		assert.Equal(t, auto, d.AutoFixable, cat)
		assert.NotEmpty(t, d.Suggestions, cat)
		assert.NotEmpty(t, d.Commands, cat)
	}

	_, ok := c.Lookup(classify.CategoryTimeout)
	assert.False(t, ok, "timeout has no descriptor")
}

func TestDefault_CoversRuleTable(t *testing.T) {
	c := Default()
	for _, r := range classify.DefaultRules() {
		if r.Category == classify.CategoryTimeout {
			continue
		}
		_, ok := c.Lookup(r.Category)
		assert.True(t, ok, "no descriptor for %s", r.Category)
	}
}

func TestSuggest_PreservesClassificationOrder(t *testing.T) {
	cls := classificationOf(
		classify.CategoryLintError,
		classify.CategoryBuildFailure,
		classify.CategoryTimeout,
		classify.CategoryDependencyIssue,
	)

	got := titles(Default().Suggest(cls))
	want := []string{"Fix Linting Issues", "Fix Build Errors", "Fix Dependency Issues"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("suggest mismatch (-want +got):\n%s", diff)
	}
}

func TestSuggest_EmptyAndUnknown(t *testing.T) {
	c := Default()
	assert.Empty(t, c.Suggest(classificationOf()))
	assert.Empty(t, c.Suggest(nil))
	assert.Empty(t, c.Suggest(classificationOf("made_up")))
}

func TestSuggest_EndToEnd(t *testing.T) {
	cls, err := classify.Default().Classify("BUILD FAILURE\ncannot find symbol\n", "build")
	require.NoError(t, err)
	ds := Default().Suggest(cls)
	require.Len(t, ds, 1)
	assert.True(t, ds[0].AutoFixable)

	cls, err = classify.Default().Classify("Tests run: 10, Failures: 2\nAssertionError at line 5\n", "unit")
	require.NoError(t, err)
	ds = Default().Suggest(cls)
	require.Len(t, ds, 1)
	assert.False(t, ds[0].AutoFixable)
}

func TestSuggest_DuplicateCategoryOnce(t *testing.T) {
	ds := Default().Suggest(classificationOf(classify.CategoryBuildFailure, classify.CategoryBuildFailure))
	assert.Len(t, ds, 1)
}

func TestLookup_ReturnsCopy(t *testing.T) {
	c := Default()
	d, ok := c.Lookup(classify.CategoryBuildFailure)
	require.True(t, ok)
	d.Commands[0] = "rm -rf /"

	again, _ := c.Lookup(classify.CategoryBuildFailure)
	assert.Equal(t, "mvn clean compile", again.Commands[0])
}

func TestGet(t *testing.T) {
	_, err := Default().Get(classify.CategoryTimeout)
	require.ErrorIs(t, err, ErrUnknownCategory)

	d, err := Default().Get(classify.CategoryLintError)
	require.NoError(t, err)
	assert.Equal(t, "Fix Linting Issues", d.Title)
}

func TestNew_Validation(t *testing.T) {
	_, err := New([]Descriptor{{Title: "no category"}})
	require.Error(t, err)

	_, err = New([]Descriptor{{Category: "x"}})
	require.Error(t, err)

	_, err = New([]Descriptor{{Category: "x", Title: "a"}, {Category: "x", Title: "b"}})
	require.Error(t, err)
}

func TestIsAdvisory(t *testing.T) {
	assert.True(t, IsAdvisory("# comment only"))
	assert.True(t, IsAdvisory("   # indented"))
	assert.False(t, IsAdvisory("npm audit fix"))
	assert.False(t, IsAdvisory("echo '#'"))

	d, _ := Default().Lookup(classify.CategorySecurityVulnerability)
	assert.Equal(t, []string{"npm audit fix", "mvn versions:use-latest-versions"}, d.ExecutableCommands())
}

func TestWithOverrides(t *testing.T) {
	base := Default()
	merged, err := base.WithOverrides([]Descriptor{
		{Category: classify.CategoryLintError, Title: "Run golangci-lint", Commands: []string{"golangci-lint run --fix"}, AutoFixable: true},
		{Category: classify.CategoryTimeout, Title: "Raise Timeouts"},
	})
	require.NoError(t, err)

	d, ok := merged.Lookup(classify.CategoryLintError)
	require.True(t, ok)
	assert.Equal(t, []string{"golangci-lint run --fix"}, d.Commands)

	cats := merged.Categories()
	assert.Equal(t, classify.CategoryTimeout, cats[len(cats)-1])
	assert.Equal(t, len(base.Categories())+1, len(cats))

	orig, _ := base.Lookup(classify.CategoryLintError)
	assert.Equal(t, "Fix Linting Issues", orig.Title, "base catalog unchanged")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`descriptors:
  - category: docker_issue
    title: Rebuild Image
    description: Retry the image build without cache
    suggestions:
      - Check the base image tag
    commands:
      - docker build --no-cache .
      - "# docker login is manual"
    auto_fixable: true
`), 0600))

	c, err := Load(path)
	require.NoError(t, err)

	d, ok := c.Lookup(classify.CategoryDockerIssue)
	require.True(t, ok)
	want := Descriptor{
		Category:    classify.CategoryDockerIssue,
		Title:       "Rebuild Image",
		Description: "Retry the image build without cache",
		Suggestions: []string{"Check the base image tag"},
		Commands:    []string{"docker build --no-cache .", "# docker login is manual"},
		AutoFixable: true,
	}
	if diff := cmp.Diff(want, d); diff != "" {
		t.Errorf("descriptor mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Categories(), c.Categories())
}

func TestLoadOverrides_Errors(t *testing.T) {
	_, err := LoadOverrides(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = ParseOverrides([]byte("descriptors:\n  - category: x\n    titel: typo\n"))
	require.Error(t, err, "unknown keys are rejected")

	_, err = ParseOverrides([]byte("descriptors:\n  - category: x\n"))
	require.Error(t, err, "title required")

	ds, err := ParseOverrides(nil)
	require.NoError(t, err)
	assert.Empty(t, ds)
}
