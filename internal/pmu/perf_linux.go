//go:build linux

package pmu

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// perfGroup is a perf_event group counting the calling OS thread on any
// CPU. Callers pin their goroutine with runtime.LockOSThread.
type perfGroup struct {
	fds []int // leader first
	ids []uint64
	buf []byte
}

// OpenGroup opens one perf_event counter per entry of Events as a single
// group. Counters start disabled and exclude kernel and hypervisor time.
func OpenGroup() (Group, error) {
	g := &perfGroup{
		buf: make([]byte, 8*(3+2*len(Events))),
	}

	leader := -1
	for _, name := range Events {
		config, ok := hardwareEvents[name]
		if !ok {
			g.Close()
			return nil, fmt.Errorf("pmu: unknown event %q", name)
		}

		attr := unix.PerfEventAttr{
			Type:   unix.PERF_TYPE_HARDWARE,
			Config: config,
			Bits:   unix.PerfBitDisabled | unix.PerfBitExcludeKernel | unix.PerfBitExcludeHv,
			Read_format: unix.PERF_FORMAT_TOTAL_TIME_ENABLED | unix.PERF_FORMAT_TOTAL_TIME_RUNNING |
				unix.PERF_FORMAT_ID | unix.PERF_FORMAT_GROUP,
		}
		attr.Size = uint32(unsafe.Sizeof(attr))

		fd, err := unix.PerfEventOpen(&attr, 0, -1, leader, unix.PERF_FLAG_FD_CLOEXEC)
		if err != nil {
			g.Close()
			return nil, fmt.Errorf("pmu: perf_event_open %s: %w", name, err)
		}
		if leader == -1 {
			leader = fd
		}
		g.fds = append(g.fds, fd)
	}

	// The counters are disabled, so this read only reports their ids.
	r, err := g.read()
	if err != nil {
		g.Close()
		return nil, err
	}
	for _, v := range r.Values {
		g.ids = append(g.ids, v.ID)
	}
	return g, nil
}

var hardwareEvents = map[string]uint64{
	"bus-cycles":   unix.PERF_COUNT_HW_BUS_CYCLES,
	"cpu-cycles":   unix.PERF_COUNT_HW_CPU_CYCLES,
	"instructions": unix.PERF_COUNT_HW_INSTRUCTIONS,
}

func (g *perfGroup) IDs() []uint64 { return g.ids }

func (g *perfGroup) Start() error {
	if err := unix.IoctlSetInt(g.fds[0], unix.PERF_EVENT_IOC_RESET, unix.PERF_IOC_FLAG_GROUP); err != nil {
		return fmt.Errorf("ioctl reset: %w", err)
	}
	if err := unix.IoctlSetInt(g.fds[0], unix.PERF_EVENT_IOC_ENABLE, unix.PERF_IOC_FLAG_GROUP); err != nil {
		return fmt.Errorf("ioctl enable: %w", err)
	}
	return nil
}

func (g *perfGroup) Stop() (Reading, error) {
	if err := unix.IoctlSetInt(g.fds[0], unix.PERF_EVENT_IOC_DISABLE, unix.PERF_IOC_FLAG_GROUP); err != nil {
		return Reading{}, fmt.Errorf("ioctl disable: %w", err)
	}
	return g.read()
}

func (g *perfGroup) read() (Reading, error) {
	n, err := unix.Read(g.fds[0], g.buf)
	if err != nil {
		return Reading{}, fmt.Errorf("read counters: %w", err)
	}
	return DecodeReading(g.buf[:n])
}

func (g *perfGroup) Close() error {
	var first error
	for i := len(g.fds) - 1; i >= 0; i-- {
		if err := unix.Close(g.fds[i]); err != nil && first == nil {
			first = err
		}
	}
	g.fds = nil
	return first
}
