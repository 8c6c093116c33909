package lock

import (
	"encoding/json"
	"fmt"
	"os"
	"syscall"
	"time"
)

// Info contains metadata about who holds a lock.
type Info struct {
	User     string    `json:"user"`
	Hostname string    `json:"hostname"`
	Started  time.Time `json:"started"`
	PID      int       `json:"pid"`
	Command  string    `json:"command,omitempty"`
}

// NewInfo creates an Info with the current user, hostname, time, PID, and command.
func NewInfo(command string) *Info {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	user := os.Getenv("USER")
	if user == "" {
		user = "unknown"
	}

	return &Info{
		User:     user,
		Hostname: hostname,
		Started:  time.Now(),
		PID:      os.Getpid(),
		Command:  command,
	}
}

// Age returns how long ago the lock was acquired.
func (i *Info) Age() time.Duration {
	return time.Since(i.Started)
}

// Alive reports whether the holding process still exists. Only meaningful
// for locks taken on this machine, which is the only kind this package
// creates.
func (i *Info) Alive() bool {
	if i.PID <= 0 {
		return false
	}
	// FindProcess never fails on unix; signal 0 probes existence.
	proc, err := os.FindProcess(i.PID)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

// String describes the holder for error messages.
func (i *Info) String() string {
	return fmt.Sprintf("%s@%s (pid %d, started %s ago)",
		i.User, i.Hostname, i.PID, i.Age().Round(time.Second))
}

// Marshal serializes the info to JSON.
func (i *Info) Marshal() ([]byte, error) {
	return json.Marshal(i)
}

// ParseInfo deserializes lock info from JSON.
func ParseInfo(data []byte) (*Info, error) {
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
