package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminCheck(t *testing.T) {
	testEnv(t)

	require.NoError(t, adminCheckRun("admin-1"))
	assert.Equal(t, "yes\n", testOut.String())

	testOut.Reset()
	require.NoError(t, adminCheckRun("admin-9"))
	assert.Equal(t, "no\n", testOut.String())

	testOut.Reset()
	require.NoError(t, adminCheckRun(""))
	assert.Equal(t, "no\n", testOut.String())
}

func TestAdminList(t *testing.T) {
	testEnv(t)

	require.NoError(t, adminListRun())
	assert.Equal(t, "admin-1\nadmin-2\n", testOut.String())
}

func TestAdminList_Empty(t *testing.T) {
	dir := testEnv(t)
	t.Setenv("ADMIN_IDS", "")
	reloadConfig(t, dir)

	require.NoError(t, adminListRun())
	assert.Contains(t, testOut.String(), "No admins configured")
}
