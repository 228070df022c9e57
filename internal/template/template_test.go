package template

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Variables(t *testing.T) {
	t.Parallel()

	tpl := Parse("git checkout {{branch}} && git push {{remote|origin|upstream}} {{branch:upper}} {{{token}}}")

	require.Equal(t, "git", tpl.RootCommand())
	vars := tpl.Variables()
	require.Len(t, vars, 3)

	assert.Equal(t, "branch", vars[0].Name)
	assert.False(t, vars[0].Secret)
	assert.Empty(t, vars[0].Functions, "first occurrence has no transform")

	assert.Equal(t, "remote|origin|upstream", vars[1].Name)
	assert.Equal(t, []string{"remote", "origin", "upstream"}, vars[1].Options)
	assert.Equal(t, []string{"remote", "origin", "upstream", "remote|origin|upstream"}, vars[1].FlatNames())

	assert.Equal(t, "token", vars[2].Name)
	assert.True(t, vars[2].Secret)
}

func TestParse_SecretForms(t *testing.T) {
	t.Parallel()

	for _, cmd := range []string{"login {{{password}}}", "login {{*password*}}"} {
		vars := Parse(cmd).Variables()
		require.Len(t, vars, 1, cmd)
		assert.True(t, vars[0].Secret, cmd)
		assert.Equal(t, "password", vars[0].Name, cmd)
	}
}

func TestParse_Functions(t *testing.T) {
	t.Parallel()

	v := parseVariable("Feature Name:kebab:upper")
	assert.Equal(t, "Feature Name", v.Name)
	assert.Equal(t, []Function{FuncKebab, FuncUpper}, v.Functions)

	v = parseVariable("url:https")
	assert.Equal(t, "url:https", v.Name, "unknown suffix stays in the name")
	assert.Empty(t, v.Functions)

	v = parseVariable("lower")
	assert.Equal(t, "lower", v.Name)
	assert.Empty(t, v.Functions)
}

func TestTemplate_FillAndRender(t *testing.T) {
	t.Parallel()

	tpl := Parse("git checkout -b {{feature:kebab}} && echo {{feature}}")
	next, ok := tpl.Next()
	require.True(t, ok)
	assert.Equal(t, "feature", next.Name)
	assert.Equal(t, "git checkout -b {{feature:kebab}} && echo {{feature}}", tpl.Render())

	require.NoError(t, tpl.Set("feature", "Add Login Page"))
	assert.True(t, tpl.Complete())
	assert.Equal(t, "git checkout -b add-login-page && echo Add Login Page", tpl.Render())

	_, ok = tpl.Next()
	assert.False(t, ok)
}

func TestTemplate_ContextStopsAtCurrent(t *testing.T) {
	t.Parallel()

	tpl := Parse("kubectl -n {{ns}} logs {{pod}} -c {{container}}")
	require.NoError(t, tpl.Set("ns", "prod"))
	require.NoError(t, tpl.Set("container", "app"))

	assert.Equal(t, map[string]string{"ns": "prod"}, tpl.Context(), "container comes after the pending pod")
	assert.Equal(t, map[string]string{"ns": "prod", "container": "app"}, tpl.FilledValues())

	require.NoError(t, tpl.Set("pod", "web-1"))
	assert.Equal(t, tpl.FilledValues(), tpl.Context())
}

func TestTemplate_SetUnknown(t *testing.T) {
	t.Parallel()

	err := Parse("ls {{dir}}").Set("nope", "x")
	assert.True(t, errors.Is(err, ErrUnknownVariable))
}

func TestTemplate_ContextSkipsSecrets(t *testing.T) {
	t.Parallel()

	tpl := Parse("deploy {{Env}} {{{token}}} {{branch}}")
	require.NoError(t, tpl.Set("Env", "prod"))
	require.NoError(t, tpl.Set("token", "hunter2"))

	assert.Equal(t, map[string]string{"env": "prod"}, tpl.Context())
	assert.Equal(t, []string{"branch"}, tpl.Missing())

	_, err := tpl.RenderStrict()
	assert.ErrorIs(t, err, ErrMissingValue)

	require.NoError(t, tpl.Set("branch", "main"))
	out, err := tpl.RenderStrict()
	require.NoError(t, err)
	assert.Equal(t, "deploy prod hunter2 main", out)

	tpl.Unset("branch")
	assert.False(t, tpl.Complete())
}

func TestTemplate_NoVariables(t *testing.T) {
	t.Parallel()

	tpl := Parse("ls -la {not a var} {{}}")
	assert.False(t, tpl.HasVariables())
	assert.True(t, tpl.Complete())
	assert.Equal(t, "ls -la {not a var} {{}}", tpl.Render())
}

func TestFunctions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		fn   Function
		in   string
		want string
	}{
		{FuncKebab, "Hello World", "hello-world"},
		{FuncKebab, "myBranch name_2", "my-branch-name-2"},
		{FuncSnake, "Hello  World!", "hello_world"},
		{FuncUpper, "abc", "ABC"},
		{FuncLower, "ABC", "abc"},
		{FuncURL, "a b/c", "a%20b%2Fc"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.fn.Apply(tt.in), "%s(%q)", tt.fn, tt.in)
	}
}

func TestHashtags(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"git", "daily"}, Hashtags("#git checkout helper #daily not#this #git #"))
	assert.Nil(t, Hashtags("no tags"))
	assert.Equal(t, []string{"docker", "k8s"}, Hashtags("run it #Docker, then #k8s!"))
}

func TestSplitHashtags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text     string
		wantTags []string
		wantRest string
	}{
		{text: "#git status", wantTags: []string{"git"}, wantRest: "status"},
		{text: "git #vcs status #Daily", wantTags: []string{"vcs", "daily"}, wantRest: "git status"},
		{text: "#git #GIT", wantTags: []string{"git"}, wantRest: ""},
		{text: "echo a#b", wantTags: nil, wantRest: "echo a#b"},
		{text: "ls # ", wantTags: nil, wantRest: "ls"},
	}
	for _, tt := range tests {
		tags, rest := SplitHashtags(tt.text)
		assert.Equal(t, tt.wantTags, tags, tt.text)
		assert.Equal(t, tt.wantRest, rest, tt.text)
	}
}
