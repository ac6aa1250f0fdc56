package videoio

import (
	"os/exec"
)

// We prefer to return stderr over the process exit code, because that's where
// ffmpeg/ffprobe put their actual complaint
type exitErrorVerbose struct {
	E exec.ExitError
}

func (e exitErrorVerbose) Error() string {
	if len(e.E.Stderr) != 0 {
		return string(e.E.Stderr)
	}
	return e.E.Error()
}

func runApp(name string, args ...string) (string, error) {
	cmd := exec.Command(name, args...)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", exitErrorVerbose{*exitErr}
		}
		return "", err
	}
	return string(out), nil
}
