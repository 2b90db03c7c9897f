package main

import (
	"bytes"
	"context"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/eiannone/keyboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/showcontroller/osctools/osc"
)

func TestParseConfig(t *testing.T) {
	cfg, err := parseConfig([]string{"localhost", "9001", "/ping", "i", "42", "s", "hello"}, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 9001, cfg.Port)
	assert.Equal(t, "/ping", cfg.Address)
	assert.Equal(t, []osc.Arg{{Tag: osc.TypeInt32, Value: "42"}, {Tag: osc.TypeString, Value: "hello"}}, cfg.Args)
}

func TestParseConfigReplay(t *testing.T) {
	cfg, err := parseConfig([]string{"-replay", "c.slip", "-timing", "::1", "9001"}, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, "c.slip", cfg.ReplayPath)
	assert.True(t, cfg.Timing)
	assert.Equal(t, "::1", cfg.Host)
}

func TestParseConfigErrors(t *testing.T) {
	for _, args := range [][]string{
		{},
		{"localhost", "9001"},
		{"localhost", "port", "/a"},
		{"localhost", "0", "/a"},
		{"localhost", "9001", "/a", "x", "1"},
		{"localhost", "9001", "/a", "i"},
		{"-replay", "c.slip", "localhost", "9001", "/a"},
		{"-replay", "c.slip", "-interactive", "localhost", "9001"},
	} {
		_, err := parseConfig(args, &bytes.Buffer{})
		assert.Error(t, err, "%v", args)
	}
}

func listenUDP(t *testing.T) (net.PacketConn, string) {
	t.Helper()
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, strconv.Itoa(conn.LocalAddr().(*net.UDPAddr).Port)
}

func readDatagram(t *testing.T, conn net.PacketConn) []byte {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, osc.MaxPacketSize)
	n, _, err := conn.ReadFrom(buf)
	require.NoError(t, err)
	return buf[:n]
}

func TestRunSends(t *testing.T) {
	conn, port := listenUDP(t)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"127.0.0.1", port, "/ping", "i", "42"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	assert.Equal(t, []byte("/ping\x00\x00\x00,i\x00\x00\x00\x00\x00\x2a"), readDatagram(t, conn))
}

func TestRunRejectsBadValueBeforeSending(t *testing.T) {
	conn, port := listenUDP(t)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"127.0.0.1", port, "/ping", "i", "forty-two"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "invalid number")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(50*time.Millisecond)))
	_, _, err := conn.ReadFrom(make([]byte, 16))
	assert.Error(t, err)
}

func TestRunRejectsUnknownType(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"127.0.0.1", "9001", "/ping", "b", "x"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "unsupported type")
}

func TestReplay(t *testing.T) {
	conn, port := listenUDP(t)

	first, err := osc.NewMessage("/one", int32(1)).MarshalBinary()
	require.NoError(t, err)
	second, err := osc.NewMessage("/two", "2").MarshalBinary()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "capture.slip")
	f, err := os.Create(path)
	require.NoError(t, err)
	w := osc.NewCaptureWriter(f)
	now := time.Now()
	require.NoError(t, w.Write(now, first))
	require.NoError(t, w.Write(now.Add(10*time.Millisecond), second))
	require.NoError(t, f.Close())

	p, err := strconv.Atoi(port)
	require.NoError(t, err)
	client := osc.NewClient("127.0.0.1", p)
	defer client.Close()

	start := time.Now()
	require.NoError(t, replay(context.Background(), client, path, true, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)

	assert.Equal(t, first, readDatagram(t, conn))
	assert.Equal(t, second, readDatagram(t, conn))
}

func TestSleepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleep(ctx, time.Hour), context.Canceled)
}

func TestClassifyKey(t *testing.T) {
	for _, tt := range []struct {
		char rune
		key  keyboard.Key
		want keyAction
	}{
		{0, keyboard.KeySpace, actionSend},
		{0, keyboard.KeyEnter, actionSend},
		{' ', 0, actionSend},
		{0, keyboard.KeyEsc, actionQuit},
		{0, keyboard.KeyCtrlC, actionQuit},
		{'q', 0, actionQuit},
		{'x', 0, actionIgnore},
	} {
		assert.Equal(t, tt.want, classifyKey(tt.char, tt.key), "char %q key %v", tt.char, tt.key)
	}
}
