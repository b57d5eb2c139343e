package main

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func TestRunServe_RedisUnavailableLeavesNoListener(t *testing.T) {
	port := freePort(t)
	t.Setenv("PORT", strconv.Itoa(port))
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("RELOAD_ENABLED", "true")
	t.Setenv("REDIS_ADDR", fmt.Sprintf("127.0.0.1:%d", freePort(t)))

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	err := runServe(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")

	l, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	require.NoError(t, err, "the HTTP server must not be started when redis is unreachable")
	_ = l.Close()
}
