//go:build darwin

package login

import (
	"fmt"
	"html"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const agentLabel = "com.murmur.app"

// Env vars worth carrying into the launchd agent, which otherwise
// starts with a near-empty environment.
var carriedEnv = []string{
	"MURMUR_MODEL_PATH",
	"MURMUR_LANGUAGE",
	"MURMUR_DEVICE",
	"MURMUR_LOG_PATH",
}

func agentPath() string {
	return filepath.Join(os.Getenv("HOME"), "Library", "LaunchAgents", agentLabel+".plist")
}

func launchDomain() string {
	return fmt.Sprintf("gui/%d", os.Getuid())
}

func Enabled() bool {
	_, err := os.Stat(agentPath())
	return err == nil
}

func renderAgent(exe string) string {
	var env strings.Builder
	for _, key := range carriedEnv {
		if v := os.Getenv(key); v != "" {
			fmt.Fprintf(&env, "\t\t\t<key>%s</key>\n\t\t\t<string>%s</string>\n", key, html.EscapeString(v))
		}
	}
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>%s</string>
	<key>ProgramArguments</key>
	<array>
		<string>%s</string>
	</array>
	<key>RunAtLoad</key>
	<true/>
	<key>LimitLoadToSessionType</key>
	<string>Aqua</string>
	<key>EnvironmentVariables</key>
	<dict>
%s	</dict>
</dict>
</plist>
`, agentLabel, html.EscapeString(exe), env.String())
}

func Enable() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	path := agentPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create LaunchAgents dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(renderAgent(exe)), 0600); err != nil {
		return fmt.Errorf("write agent plist: %w", err)
	}

	// Bootout first so re-enabling an already-loaded agent works.
	exec.Command("launchctl", "bootout", launchDomain(), path).Run()
	if out, err := exec.Command("launchctl", "bootstrap", launchDomain(), path).CombinedOutput(); err != nil {
		return fmt.Errorf("launchctl bootstrap: %w (%s)", err, out)
	}
	return nil
}

func Disable() error {
	path := agentPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	exec.Command("launchctl", "bootout", launchDomain(), path).Run()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove agent plist: %w", err)
	}
	return nil
}
