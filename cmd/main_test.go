package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommands(t *testing.T) {
	root := newRootCmd()

	names := []string{}
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "migrate", "sweep-trials", "mark-overdue", "totals"}, names)

	sweep, _, err := root.Find([]string{"sweep-trials"})
	require.NoError(t, err)
	assert.NotNil(t, sweep.Flags().Lookup("apply"))
}

func TestTotalsCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetIn(strings.NewReader(`{
		"customer_id": "",
		"items": [
			{"id": "a", "description": "Design", "quantity": 2, "unit_price": "100"},
			{"id": "b", "description": "Hosting", "quantity": 1, "unit_price": 50}
		]
	}`))
	root.SetArgs([]string{"totals"})

	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), "Subtotal: £250.00")
	assert.Contains(t, out.String(), "Tax:      £50.00")
	assert.Contains(t, out.String(), "Total:    £300.00")
	assert.Contains(t, out.String(), "invalid customer_id")
}

func TestTotalsCommand_BadInput(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader("not json"))
	root.SetArgs([]string{"totals"})

	assert.Error(t, root.Execute())
}
