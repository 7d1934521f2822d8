package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willothy/sesh/internal/protocol"
)

func TestSynthesizeName(t *testing.T) {
	taken := map[string]bool{}
	isTaken := func(n string) bool { return taken[n] }

	assert.Equal(t, "bash-0", synthesizeName("/bin/bash", isTaken))

	taken["bash-0"] = true
	assert.Equal(t, "bash-1", synthesizeName("/bin/bash", isTaken))

	taken["bash-1"] = true
	taken["bash-2"] = true
	assert.Equal(t, "bash-3", synthesizeName("/bin/bash", isTaken))

	// Other programs do not collide with bash's numbering.
	assert.Equal(t, "vim-0", synthesizeName("/usr/bin/vim", isTaken))
}

func TestValidateName(t *testing.T) {
	require.NoError(t, validateName("work"))
	require.NoError(t, validateName("bash-0"))
	require.NoError(t, validateName("42"))

	err := validateName("")
	require.Error(t, err)
	assert.Equal(t, protocol.KindProtocolError, protocol.KindOf(err))

	err = validateName("bad\x00name")
	require.Error(t, err)

	err = validateName("tab\there")
	require.Error(t, err)
}

func TestBuildEnv(t *testing.T) {
	env := buildEnv(map[string]string{
		"TERM":            "xterm",
		"SESH_NAME":       "stale-outer",
		"SESH_SESSION_ID": "99",
	}, "work", 3)

	assert.Contains(t, env, "TERM=xterm")
	assert.Contains(t, env, "SESH_NAME=work")
	assert.Contains(t, env, "SESH_SESSION_ID=3")
	assert.NotContains(t, env, "SESH_NAME=stale-outer")
	assert.NotContains(t, env, "SESH_SESSION_ID=99")
}
