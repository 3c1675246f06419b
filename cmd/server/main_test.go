package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandTree(t *testing.T) {
	root := rootCommand(&app{})

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"serve"}, "serve"},
		{[]string{"migrate", "up"}, "up"},
		{[]string{"migrate", "down"}, "down"},
		{[]string{"migrate", "version"}, "version"},
		{[]string{"migrate", "force"}, "force"},
		{[]string{"seed"}, "seed"},
		{[]string{"reviews", "export"}, "export"},
		{[]string{"reviews", "import"}, "import"},
	}

	for _, tt := range tests {
		cmd, _, err := root.Find(tt.args)
		require.NoError(t, err, tt.args)
		assert.Equal(t, tt.want, cmd.Name())
		assert.NotNil(t, cmd.RunE, tt.args)
	}

	flag := root.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	assert.Equal(t, "c", flag.Shorthand)
}

func TestInitializeRejectsMissingConfigFile(t *testing.T) {
	a := &app{configFile: "/nonexistent/agrihealth.yaml"}
	require.Error(t, a.initialize())
	assert.Nil(t, a.logger)
}
