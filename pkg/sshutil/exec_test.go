package sshutil

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"github.com/kdlocpanda/vision/internal/errors"
)

// startStallingServer runs an in-process SSH server that accepts any
// password, acknowledges exec requests, and then never reports an exit
// status, so every command appears to run forever.
func startStallingServer(t *testing.T) string {
	t.Helper()

	signer, err := ssh.ParsePrivateKey([]byte(testKeyPEM))
	require.NoError(t, err)

	cfg := &ssh.ServerConfig{
		PasswordCallback: func(_ ssh.ConnMetadata, _ []byte) (*ssh.Permissions, error) {
			return nil, nil
		},
	}
	cfg.AddHostKey(signer)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		serverConn, chans, reqs, err := ssh.NewServerConn(conn, cfg)
		if err != nil {
			return
		}
		defer serverConn.Close()
		go ssh.DiscardRequests(reqs)

		for newChannel := range chans {
			if newChannel.ChannelType() != "session" {
				newChannel.Reject(ssh.UnknownChannelType, "unsupported")
				continue
			}
			_, requests, err := newChannel.Accept()
			if err != nil {
				continue
			}
			go func(in <-chan *ssh.Request) {
				for req := range in {
					if req.WantReply {
						req.Reply(true, nil)
					}
				}
			}(requests)
		}
	}()

	return ln.Addr().String()
}

func dialStallingServer(t *testing.T) *Client {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	host, portStr, err := net.SplitHostPort(startStallingServer(t))
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	client, err := Dial(Target{Host: host, Port: port, User: "probe", Password: "pw"}, 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestExec_TimeoutForceClosesConnection(t *testing.T) {
	client := dialStallingServer(t)

	start := time.Now()
	_, err := client.Exec(context.Background(), "sleep 600", 500*time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrTimeout))
	assert.Contains(t, err.Error(), "timed out")
	assert.Less(t, time.Since(start), 5*time.Second, "the deadline must cut the command short")

	// The whole connection went down, not just the session: a fresh
	// session on the same client must fail.
	_, err = client.Exec(context.Background(), "true", time.Second)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrSSH))
}

func TestExec_CancellationForceClosesConnection(t *testing.T) {
	client := dialStallingServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(200 * time.Millisecond)
		cancel()
	}()

	_, err := client.Exec(ctx, "sleep 600", time.Minute)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrTimeout))
	assert.Contains(t, err.Error(), "canceled")
}
