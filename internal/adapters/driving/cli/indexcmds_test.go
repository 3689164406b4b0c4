package cli

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitIndexCmd_Executes(t *testing.T) {
	called := false
	SetServices(Services{InitIndex: func(_ *cobra.Command) error {
		called = true
		return nil
	}})
	defer SetServices(Services{})

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"init-index"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.True(t, called)
	assert.Contains(t, buf.String(), "Index collections ready.")
}

func TestDeleteIndexCmd_RefusesWithoutYes(t *testing.T) {
	called := false
	SetServices(Services{DeleteIndex: func(_ *cobra.Command) error {
		called = true
		return nil
	}})
	defer SetServices(Services{})

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"delete-index"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
	assert.False(t, called)
}

func TestDeleteIndexCmd_ExecutesWithYes(t *testing.T) {
	called := false
	SetServices(Services{DeleteIndex: func(_ *cobra.Command) error {
		called = true
		return nil
	}})
	defer SetServices(Services{})

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"delete-index", "--yes"})
	defer func() {
		rootCmd.SetArgs(nil)
		deleteIndexYes = false
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.True(t, called)
	assert.Contains(t, buf.String(), "Index collections deleted.")
}
