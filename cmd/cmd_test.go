package cmd

import (
	"bytes"
	"testing"

	"github.com/gaze-network/estate-ordinals/common/errs"
	"github.com/gaze-network/estate-ordinals/modules/estate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportIncomesOptions(t *testing.T) {
	for _, kind := range []string{"user", "property"} {
		assert.NoError(t, exportIncomesCmdOptions{Kind: kind}.Validate(), kind)
	}
	assert.ErrorIs(t, exportIncomesCmdOptions{Kind: "holders"}.Validate(), errs.InvalidArgument)
}

func TestVersionCommand(t *testing.T) {
	tc := []struct {
		module string
		want   string
	}{
		{"", Version},
		{"estate", estate.Version},
	}
	for _, tt := range tc {
		var out bytes.Buffer
		cmd := NewVersionCommand()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"--module", tt.module})
		require.NoError(t, cmd.Execute())
		assert.Equal(t, tt.want+"\n", out.String())
	}

	cmd := NewVersionCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--module", "runes"})
	assert.ErrorIs(t, cmd.Execute(), errs.Unsupported)
}
