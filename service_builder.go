package svscan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/renameio/v2"
)

// ServiceDirBuilder provides a fluent interface for creating service
// subdirectories under a scan directory. It writes an executable run
// script that execs the configured command, optionally after exporting
// environment variables and changing the working directory.
//
// The run script is written atomically, so a Scanner pass never observes
// a partially written definition.
type ServiceDirBuilder struct {
	// Name is the service name (the subdirectory name)
	Name string
	// Dir is the scan directory the service will be created under
	Dir string
	// Cmd is the command and arguments to exec
	Cmd []string
	// Cwd is the working directory for the service
	Cwd string
	// Env contains environment variables exported before the exec
	Env map[string]string
}

// NewServiceDirBuilder creates a ServiceDirBuilder for the given service
// name under the given scan directory
func NewServiceDirBuilder(name, dir string) *ServiceDirBuilder {
	return &ServiceDirBuilder{
		Name: name,
		Dir:  dir,
		Env:  make(map[string]string),
	}
}

// WithCmd sets the command to exec
func (b *ServiceDirBuilder) WithCmd(cmd []string) *ServiceDirBuilder {
	b.Cmd = cmd
	return b
}

// WithCwd sets the working directory
func (b *ServiceDirBuilder) WithCwd(cwd string) *ServiceDirBuilder {
	b.Cwd = cwd
	return b
}

// WithEnv adds an environment variable
func (b *ServiceDirBuilder) WithEnv(key, value string) *ServiceDirBuilder {
	b.Env[key] = value
	return b
}

// RunScriptPath returns the path of the run script the builder writes
func (b *ServiceDirBuilder) RunScriptPath() string {
	return filepath.Join(b.Dir, b.Name, RunScriptFile)
}

// Build creates the service subdirectory and writes its run script
func (b *ServiceDirBuilder) Build() error {
	if b.Dir == "" {
		return fmt.Errorf("scan directory not specified")
	}
	if b.Name == "" {
		return fmt.Errorf("service name not specified")
	}
	if len(b.Cmd) == 0 {
		return fmt.Errorf("command not specified")
	}

	serviceDir := filepath.Join(b.Dir, b.Name)
	if err := os.MkdirAll(serviceDir, DirMode); err != nil {
		return fmt.Errorf("creating service directory: %w", err)
	}

	script := b.buildRunScript()
	if err := renameio.WriteFile(b.RunScriptPath(), []byte(script), ExecMode); err != nil {
		return fmt.Errorf("writing run script: %w", err)
	}

	return nil
}

// buildRunScript generates the run script for the service. Environment
// exports are emitted in sorted key order, so rebuilding an identical
// definition yields a byte-identical script and an unchanged fingerprint.
func (b *ServiceDirBuilder) buildRunScript() string {
	var lines []string
	lines = append(lines, "#!/bin/sh")

	keys := make([]string, 0, len(b.Env))
	for key := range b.Env {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		lines = append(lines, fmt.Sprintf("export %s=%s", key, shellQuote(b.Env[key])))
	}

	if b.Cwd != "" {
		lines = append(lines, fmt.Sprintf("cd %s", shellQuote(b.Cwd)))
	}

	cmdParts := make([]string, 0, len(b.Cmd))
	for _, part := range b.Cmd {
		cmdParts = append(cmdParts, shellQuote(part))
	}
	lines = append(lines, "exec "+strings.Join(cmdParts, " "))

	return strings.Join(lines, "\n") + "\n"
}

// shellQuote escapes a string for safe use in shell scripts
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}

	if !needsShellQuoting(s) {
		return s
	}

	return "'" + strings.ReplaceAll(s, "'", "'\\''") + "'"
}

// needsShellQuoting checks if a string contains characters that require shell quoting
func needsShellQuoting(s string) bool {
	// Characters that require quoting in shell
	const specialChars = " \t\n'\"\\$`!*?[](){}<>|&;~"

	for _, r := range s {
		if strings.ContainsRune(specialChars, r) {
			return true
		}
	}
	return false
}
