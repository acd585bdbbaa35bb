package server

import (
	"errors"
	"net"
	"strings"
	"testing"

	gossh "golang.org/x/crypto/ssh"

	"github.com/lawnchairsociety/tilegen/internal/tiles"
)

func startSSH(t *testing.T) string {
	t.Helper()
	s := NewServer(testConfig(), tiles.BaseGame(), nil)
	v, err := NewSSHServer(s)
	if err != nil {
		t.Fatalf("NewSSHServer() error = %v", err)
	}

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	go v.Serve(l)
	t.Cleanup(func() {
		v.Close()
		s.Close()
	})
	return l.Addr().String()
}

func runSSH(t *testing.T, addr, cmd string) (string, error) {
	t.Helper()
	client, err := gossh.Dial("tcp", addr, &gossh.ClientConfig{
		User:            "tester",
		HostKeyCallback: gossh.InsecureIgnoreHostKey(),
	})
	if err != nil {
		t.Fatalf("ssh Dial() error = %v", err)
	}
	defer client.Close()

	sess, err := client.NewSession()
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	defer sess.Close()

	out, err := sess.Output(cmd)
	return string(out), err
}

func TestSSHServer_DrawsMap(t *testing.T) {
	addr := startSSH(t)

	out, err := runSSH(t, addr, "4 2 7")
	if err != nil {
		t.Fatalf("ssh session error = %v", err)
	}
	if !strings.HasPrefix(out, "4x2 map, seed 7\n") {
		t.Errorf("output starts %q", strings.SplitN(out, "\n", 2)[0])
	}

	again, err := runSSH(t, addr, "4 2 7")
	if err != nil {
		t.Fatalf("second ssh session error = %v", err)
	}
	if again != out {
		t.Error("same seed drew a different map")
	}
}

func TestSSHServer_BadCommand(t *testing.T) {
	addr := startSSH(t)

	_, err := runSSH(t, addr, "40 40")
	var exitErr *gossh.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitStatus() != 2 {
		t.Errorf("oversized map error = %v, want exit status 2", err)
	}
}

func TestParseSSHCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    Request
		wantErr bool
	}{
		{"defaults", nil, Request{Width: 5, Height: 4}, false},
		{"size", []string{"3", "2"}, Request{Width: 3, Height: 2}, false},
		{"size and seed", []string{"3", "2", "-9"}, Request{Width: 3, Height: 2, Seed: -9}, false},
		{"one arg", []string{"3"}, Request{}, true},
		{"bad width", []string{"x", "2"}, Request{}, true},
		{"bad seed", []string{"3", "2", "seed"}, Request{}, true},
		{"too large", []string{"9", "2"}, Request{}, true},
		{"too many", []string{"1", "2", "3", "4"}, Request{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSSHCommand(tt.args, 5, 4, 8, 8)
			if tt.wantErr {
				if !errors.Is(err, ErrBadRequest) {
					t.Errorf("parseSSHCommand() error = %v, want ErrBadRequest", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseSSHCommand() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("parseSSHCommand() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
