package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mockFfmpeg(t *testing.T, fail bool) *[]string {
	t.Helper()
	var captured []string
	original := execCommandContext
	execCommandContext = func(ctx context.Context, name string, arg ...string) *exec.Cmd {
		captured = arg
		cs := []string{"-test.run=TestHelperProcess", "--", name}
		cs = append(cs, arg...)
		cmd := exec.Command(os.Args[0], cs...)
		env := []string{"GO_WANT_HELPER_PROCESS=1"}
		if fail {
			env = append(env, "MOCK_FAIL=1")
		}
		cmd.Env = env
		return cmd
	}
	t.Cleanup(func() { execCommandContext = original })
	return &captured
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	if os.Getenv("MOCK_FAIL") == "1" {
		fmt.Fprintln(os.Stderr, "mock encode error")
		os.Exit(1)
	}
	os.Exit(0)
}

func TestEncode(t *testing.T) {
	captured := mockFfmpeg(t, false)

	err := New().Encode(context.Background(), "in.mp3", "out.mp3", 64)

	require.NoError(t, err)
	args := strings.Join(*captured, " ")
	assert.Contains(t, args, "-i in.mp3")
	assert.Contains(t, args, "-b:a 64k")
	assert.True(t, strings.HasSuffix(args, "out.mp3"))
}

func TestEncodeFailure(t *testing.T) {
	mockFfmpeg(t, true)

	err := New().Encode(context.Background(), "in.mp3", "out.mp3", 96)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "96k")
}
