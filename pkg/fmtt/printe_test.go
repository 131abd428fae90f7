package fmtt

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type statusErr struct {
	Op         string
	StatusCode int
}

func (e *statusErr) Error() string { return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode) }

func TestPrintErrChain(t *testing.T) {
	base := &statusErr{Op: "add camera", StatusCode: 500}
	err := fmt.Errorf("add camera: %w", base)

	var buf bytes.Buffer
	PrintErrChain(&buf, err)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")

	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "[0] *fmt.wrapError")
	assert.Contains(t, lines[1], "[1] *fmtt.statusErr: add camera: status 500")
}

func TestPrintErrChainNil(t *testing.T) {
	var buf bytes.Buffer
	PrintErrChain(&buf, nil)
	assert.Equal(t, "<nil>\n", buf.String())
}

func TestPrintErrChainDebugShowsFields(t *testing.T) {
	err := errors.Join(errors.New("transport"), &statusErr{Op: "stop all", StatusCode: 404})

	var buf bytes.Buffer
	PrintErrChainDebug(&buf, err)
	out := buf.String()

	assert.Contains(t, out, "Field StatusCode (int): 404")
	assert.Contains(t, out, "Field Op (string): stop all")
	assert.Contains(t, out, "Error(): transport")
}
