package pim

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedPort replays read results. Once the script is exhausted it behaves
// like a serial port that times out: it sleeps for the read timeout and
// returns (0, nil).
type scriptedPort struct {
	mu      sync.Mutex
	reads   []scriptedRead
	timeout time.Duration
	written []byte
}

type scriptedRead struct {
	data string
	err  error
}

func (p *scriptedPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	if len(p.reads) == 0 {
		timeout := p.timeout
		p.mu.Unlock()
		time.Sleep(timeout)

		return 0, nil
	}

	r := p.reads[0]
	n := copy(b, r.data)
	if n < len(r.data) {
		p.reads[0].data = r.data[n:]
		p.mu.Unlock()

		return n, nil
	}
	p.reads = p.reads[1:]
	p.mu.Unlock()

	return n, r.err
}

func (p *scriptedPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// short writes exercise the write loop
	if len(b) > 4 {
		b = b[:4]
	}
	p.written = append(p.written, b...)

	return len(b), nil
}

func (p *scriptedPort) SetReadTimeout(d time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timeout = d

	return nil
}

func TestLineTransport_SplitsLines(t *testing.T) {
	port := &scriptedPort{reads: []scriptedRead{
		{data: "PK\rPN\r\nP"},
		{data: "U08100205FF220AB6\r"},
	}}
	tr := NewLineTransport(port)

	for _, want := range []string{"PK", "PN", "PU08100205FF220AB6"} {
		line, err := tr.ReadLine(100 * time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, want, string(line))
	}

	_, err := tr.ReadLine(10 * time.Millisecond)
	require.ErrorIs(t, err, ErrReadTimeout)
}

func TestLineTransport_PartialLineSurvivesTimeout(t *testing.T) {
	port := &scriptedPort{reads: []scriptedRead{{data: "P"}}}
	tr := NewLineTransport(port)

	_, err := tr.ReadLine(10 * time.Millisecond)
	require.ErrorIs(t, err, ErrReadTimeout)

	port.mu.Lock()
	port.reads = append(port.reads, scriptedRead{data: "K\n"})
	port.mu.Unlock()

	line, err := tr.ReadLine(100 * time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "PK", string(line))
}

func TestLineTransport_DiscardsOverlongNoise(t *testing.T) {
	noise := make([]byte, maxLineLength+10)
	for i := range noise {
		noise[i] = 'x'
	}

	port := &scriptedPort{reads: []scriptedRead{
		{data: string(noise)},
		{data: "PK\r"},
	}}
	tr := NewLineTransport(port)

	line, err := tr.ReadLine(100 * time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "PK", string(line))
}

func TestLineTransport_ErrorAfterBufferedLines(t *testing.T) {
	port := &scriptedPort{reads: []scriptedRead{{data: "PK\rPN\r", err: io.EOF}}}
	tr := NewLineTransport(port)

	line, err := tr.ReadLine(100 * time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "PK", string(line))

	line, err = tr.ReadLine(100 * time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "PN", string(line))

	_, err = tr.ReadLine(100 * time.Millisecond)
	require.ErrorIs(t, err, io.EOF)

	// the error is sticky
	_, err = tr.ReadLine(100 * time.Millisecond)
	require.ErrorIs(t, err, io.EOF)
}

func TestLineTransport_TimeoutErrorIsNotFatal(t *testing.T) {
	port := &scriptedPort{reads: []scriptedRead{
		{err: timeoutErr{}},
		{data: "PK\r"},
	}}
	tr := NewLineTransport(port)

	line, err := tr.ReadLine(100 * time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "PK", string(line))
}

func TestLineTransport_Write(t *testing.T) {
	port := &scriptedPort{}
	tr := NewLineTransport(port)

	frame := EncodeCommandFrame(scenarioBody).Bytes()
	n, err := tr.Write(frame)
	require.NoError(t, err)
	assert.Equal(t, len(frame), n)
	assert.Equal(t, frame, port.written)
}

func TestLineTransport_PipeDeadline(t *testing.T) {
	pim, tr := newFakePIM(t)

	_, err := tr.ReadLine(10 * time.Millisecond)
	require.ErrorIs(t, err, ErrReadTimeout)

	go func() {
		_ = pim.conn.SetWriteDeadline(time.Now().Add(testWaitTimeout))
		_, _ = pim.conn.Write([]byte("PK\r"))
	}()

	line, err := tr.ReadLine(testWaitTimeout)
	require.NoError(t, err)
	assert.Equal(t, "PK", string(line))
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }
