//go:build linux

package pwm

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// SysfsActuator drives a hardware PWM channel via /sys/class/pwm.
//
// On Raspberry Pi the channels are exposed by `dtoverlay=pwm-2chan`
// (GPIO18 = pwm0, GPIO19 = pwm1). The frequency is fixed when the channel is
// opened; duty levels are scaled onto the period in nanoseconds.
type SysfsActuator struct {
	chipPath string // /sys/class/pwm/pwmchipN
	pwmPath  string // /sys/class/pwm/pwmchipN/pwmM
	channel  int

	periodNS uint64
	maxDuty  uint32

	mu      sync.Mutex
	duty    uint32
	enabled bool
}

var sysfsBase = "/sys/class/pwm"

var writeAttr = writeSysfs

// OpenSysfs exports channel on pwmchip<chip>, programs the period for
// frequencyHz and leaves the output disabled at zero duty.
func OpenSysfs(chip, channel, frequencyHz int, maxDuty uint32) (*SysfsActuator, error) {
	if frequencyHz <= 0 {
		return nil, fmt.Errorf("pwm: invalid frequency %d", frequencyHz)
	}
	if maxDuty == 0 {
		return nil, fmt.Errorf("pwm: invalid max duty 0")
	}

	chipPath := filepath.Join(sysfsBase, fmt.Sprintf("pwmchip%d", chip))
	n, err := readInt(filepath.Join(chipPath, "npwm"))
	if err != nil {
		return nil, fmt.Errorf("pwm: read %s npwm: %w", chipPath, err)
	}
	if channel < 0 || channel >= n {
		return nil, fmt.Errorf("pwm: channel %d out of range (pwmchip%d has %d)", channel, chip, n)
	}

	a := &SysfsActuator{
		chipPath: chipPath,
		channel:  channel,
		pwmPath:  filepath.Join(chipPath, fmt.Sprintf("pwm%d", channel)),
		periodNS: uint64(1_000_000_000 / frequencyHz),
		maxDuty:  maxDuty,
	}

	if err := a.ensureExported(); err != nil {
		return nil, err
	}

	// The kernel refuses a period shorter than the current duty_cycle.
	if err := a.writeBool("enable", false); err != nil {
		return nil, fmt.Errorf("pwm: disable %s: %w", a.pwmPath, err)
	}
	if err := a.writeUint("duty_cycle", 0); err != nil {
		return nil, fmt.Errorf("pwm: reset duty %s: %w", a.pwmPath, err)
	}
	if err := a.writeUint("period", a.periodNS); err != nil {
		return nil, fmt.Errorf("pwm: set period %s: %w", a.pwmPath, err)
	}
	return a, nil
}

// Exporting a channel is asynchronous: the pwmM directory shows up some
// time after the write to export returns.
const (
	exportTimeout = 500 * time.Millisecond
	exportPoll    = 10 * time.Millisecond
)

func (a *SysfsActuator) ensureExported() error {
	if exists(a.pwmPath) {
		return nil
	}
	err := writeAttr(filepath.Join(a.chipPath, "export"), strconv.Itoa(a.channel))
	if err != nil && !exists(a.pwmPath) {
		// EBUSY from a concurrent export still leaves the directory behind.
		return fmt.Errorf("pwm: export channel %d: %w", a.channel, err)
	}
	for end := time.Now().Add(exportTimeout); !exists(a.pwmPath); {
		if time.Now().After(end) {
			return fmt.Errorf("pwm: %s missing %v after export", a.pwmPath, exportTimeout)
		}
		time.Sleep(exportPoll)
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// SetDuty scales duty onto the period and writes duty_cycle.
func (a *SysfsActuator) SetDuty(duty uint32) error {
	if err := checkDuty(duty, a.maxDuty); err != nil {
		return err
	}
	ns := a.periodNS * uint64(duty) / uint64(a.maxDuty)

	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.writeUint("duty_cycle", ns); err != nil {
		return fmt.Errorf("%w: write duty_cycle %s: %w", ErrHardwareFault, a.pwmPath, err)
	}
	a.duty = duty
	return nil
}

// Duty returns the last successfully written duty level.
func (a *SysfsActuator) Duty() (uint32, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.duty, nil
}

// Enable starts the output.
func (a *SysfsActuator) Enable() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.writeBool("enable", true); err != nil {
		return fmt.Errorf("%w: enable %s: %w", ErrHardwareFault, a.pwmPath, err)
	}
	a.enabled = true
	return nil
}

// Disable stops the output. The kernel drives the pin to its inactive
// level, so the coil sees zero duty. Writing 0 to a disabled channel is
// accepted by the kernel.
func (a *SysfsActuator) Disable() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.writeBool("enable", false); err != nil {
		return fmt.Errorf("%w: disable %s: %w", ErrHardwareFault, a.pwmPath, err)
	}
	a.enabled = false
	a.duty = 0
	return nil
}

// MaxDuty returns the configured resolution.
func (a *SysfsActuator) MaxDuty() uint32 {
	return a.maxDuty
}

func (a *SysfsActuator) writeUint(name string, v uint64) error {
	return writeAttr(filepath.Join(a.pwmPath, name), strconv.FormatUint(v, 10))
}

func (a *SysfsActuator) writeBool(name string, v bool) error {
	val := "0"
	if v {
		val = "1"
	}
	return writeAttr(filepath.Join(a.pwmPath, name), val)
}

// writeSysfs writes value to a sysfs attribute. Attribute files are opened
// write-only since some reject O_TRUNC. A freshly exported channel may not be
// writable until udev has fixed its permissions, so permission and
// not-found errors are retried for up to two seconds.
func writeSysfs(path string, value string) error {
	deadline := time.Now().Add(2 * time.Second)
	for {
		err := writeOnce(path, value)
		if err == nil || !isRetryableSysfsErr(err) || time.Now().After(deadline) {
			return err
		}
		time.Sleep(25 * time.Millisecond)
	}
}

func writeOnce(path, value string) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	_, werr := f.WriteString(value)
	cerr := f.Close()
	return errors.Join(werr, cerr)
}

func isRetryableSysfsErr(err error) bool {
	return errors.Is(err, unix.EACCES) || errors.Is(err, unix.EPERM) || errors.Is(err, unix.ENOENT)
}

func readInt(path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	s := strings.TrimSpace(string(b))
	if s == "" {
		return 0, fmt.Errorf("empty")
	}
	return strconv.Atoi(s)
}
