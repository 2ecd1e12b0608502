package service

import (
	"strings"
	"sync"
	"unicode/utf8"
)

const (
	// HeadLimit bounds the output read when a child crashes at startup.
	HeadLimit = 1000
	// crash report shows the first crashLines lines of the first crashChars
	crashChars = 500
	crashLines = 5
	// exit report shows the last TailLines non-empty lines
	TailLines = 10
	// LineWidth truncates every reported line.
	LineWidth = 200

	tailLimit = 16 << 10
)

// Capture is the bounded sink for a child's merged stdout and stderr. It
// keeps the first HeadLimit bytes and the most recent tailLimit bytes, so
// a chatty service never grows the launcher's memory.
type Capture struct {
	mx   sync.Mutex
	head []byte
	tail []byte
	size int64
}

func NewCapture() *Capture {
	return &Capture{}
}

func (c *Capture) Write(p []byte) (int, error) {
	c.mx.Lock()
	defer c.mx.Unlock()
	c.size += int64(len(p))
	if room := HeadLimit - len(c.head); room > 0 {
		c.head = append(c.head, p[:min(room, len(p))]...)
	}
	if len(p) >= tailLimit {
		c.tail = append(c.tail[:0], p[len(p)-tailLimit:]...)
		return len(p), nil
	}
	if over := len(c.tail) + len(p) - tailLimit; over > 0 {
		c.tail = append(c.tail[:0], c.tail[over:]...)
	}
	c.tail = append(c.tail, p...)
	return len(p), nil
}

// Head returns a copy of the first HeadLimit bytes written.
func (c *Capture) Head() []byte {
	c.mx.Lock()
	defer c.mx.Unlock()
	return append([]byte(nil), c.head...)
}

// Size is the total number of bytes written.
func (c *Capture) Size() int64 {
	c.mx.Lock()
	defer c.mx.Unlock()
	return c.size
}

// CrashLines returns the non-empty lines among the first five lines of the
// first 500 characters.
func (c *Capture) CrashLines() []string {
	head := truncate(string(c.Head()), crashChars)
	lines := strings.Split(head, "\n")
	if len(lines) > crashLines {
		lines = lines[:crashLines]
	}
	return nonEmpty(lines)
}

// TailLines returns the last TailLines non-empty lines written.
func (c *Capture) TailLines() []string {
	c.mx.Lock()
	tail := string(c.tail)
	c.mx.Unlock()

	lines := nonEmpty(strings.Split(tail, "\n"))
	if len(lines) > TailLines {
		lines = lines[len(lines)-TailLines:]
	}
	return lines
}

func nonEmpty(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, truncate(line, LineWidth))
	}
	return out
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
