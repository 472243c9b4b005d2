package tuitest

import (
	"bytes"
	"io"
)

// reply pairs a terminal query with the answer a real terminal would give.
type reply struct {
	query  []byte
	answer []byte
}

var replies = []reply{
	{query: []byte("\x1b[6n"), answer: []byte("\x1b[1;1R")},
	{query: []byte("\x1b[c"), answer: []byte("\x1b[?62;22c")},
	{query: []byte("\x1b]10;?\x07"), answer: []byte("\x1b]10;rgb:cccc/cccc/cccc\x07")},
	{query: []byte("\x1b]10;?\x1b\\"), answer: []byte("\x1b]10;rgb:cccc/cccc/cccc\x1b\\")},
	{query: []byte("\x1b]11;?\x07"), answer: []byte("\x1b]11;rgb:0000/0000/0000\x07")},
	{query: []byte("\x1b]11;?\x1b\\"), answer: []byte("\x1b]11;rgb:0000/0000/0000\x1b\\")},
}

// terminalResponder answers the queries lipgloss and bubbletea send at
// startup so the program does not block waiting on them.
type terminalResponder struct {
	w   io.Writer
	buf []byte
}

func newTerminalResponder(w io.Writer) *terminalResponder {
	return &terminalResponder{w: w, buf: make([]byte, 0, 128)}
}

func (tr *terminalResponder) Process(chunk []byte) {
	tr.buf = append(tr.buf, chunk...)
	for tr.answerNext() {
	}
	// keep a tail for queries split across reads
	if len(tr.buf) > 256 {
		tr.buf = tr.buf[len(tr.buf)-64:]
	}
}

// answerNext answers the earliest pending query and reports whether one was
// found.
func (tr *terminalResponder) answerNext() bool {
	first, at := -1, -1
	for i, r := range replies {
		idx := bytes.Index(tr.buf, r.query)
		if idx >= 0 && (at < 0 || idx < at) {
			first, at = i, idx
		}
	}
	if first < 0 {
		return false
	}
	tr.buf = tr.buf[at+len(replies[first].query):]
	_, _ = tr.w.Write(replies[first].answer)
	return true
}
