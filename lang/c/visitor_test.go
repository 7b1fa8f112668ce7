package c

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/cflow/syntax"
)

func parse(t *testing.T, source string) syntax.Node {
	t.Helper()
	root, err := syntax.Parse(context.Background(), []byte(source), Language())
	require.NoError(t, err)
	return root
}

func TestRoutineDiscovery(t *testing.T) {
	testCases := []struct {
		description string
		source      string
		name        string
		params      []string
	}{
		{
			description: "plain function",
			source:      "int f(int a, int b){return a+b;}",
			name:        "f",
			params:      []string{"a", "b"},
		},
		{
			description: "pointer return and pointer parameter",
			source:      "char *dup(const char *s){return 0;}",
			name:        "dup",
			params:      []string{"s"},
		},
		{
			description: "no parameters",
			source:      "void tick(void){}",
			name:        "tick",
			params:      nil,
		},
	}
	v := New()
	for _, tc := range testCases {
		decls := v.Routines(parse(t, tc.source))
		require.Len(t, decls, 1, tc.description)
		assert.Equal(t, tc.name, decls[0].Name, tc.description)
		assert.Equal(t, tc.params, decls[0].Parameters, tc.description)
		assert.True(t, decls[0].Body.IsValid(), tc.description)
	}
}

func TestRoutineDiscoveryMultiple(t *testing.T) {
	source := `
int g(int a){return a;}
int m(){return g(1);}
`
	decls := New().Routines(parse(t, source))
	require.Len(t, decls, 2)
	assert.Equal(t, "g", decls[0].Name)
	assert.Equal(t, "m", decls[1].Name)
}
