//go:build linux

package pwm

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSysfs points sysfsBase at a temp tree with one exported channel and
// records attribute writes instead of touching files.
func fakeSysfs(t *testing.T) map[string]string {
	t.Helper()
	base := t.TempDir()
	chip := filepath.Join(base, "pwmchip0")
	require.NoError(t, os.MkdirAll(filepath.Join(chip, "pwm0"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(chip, "npwm"), []byte("2\n"), 0o644))

	writes := make(map[string]string)
	oldBase, oldWrite := sysfsBase, writeAttr
	sysfsBase = base
	writeAttr = func(path, value string) error {
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		writes[rel] = value
		return nil
	}
	t.Cleanup(func() {
		sysfsBase = oldBase
		writeAttr = oldWrite
	})
	return writes
}

func TestOpenSysfsProgramsPeriod(t *testing.T) {
	writes := fakeSysfs(t)

	a, err := OpenSysfs(0, 0, 1000, 255)
	require.NoError(t, err)

	assert.Equal(t, "1000000", writes["pwmchip0/pwm0/period"])
	assert.Equal(t, "0", writes["pwmchip0/pwm0/enable"])
	assert.Equal(t, "0", writes["pwmchip0/pwm0/duty_cycle"])
	assert.Equal(t, uint32(255), a.MaxDuty())
}

func TestOpenSysfsChannelOutOfRange(t *testing.T) {
	fakeSysfs(t)

	_, err := OpenSysfs(0, 2, 1000, 255)
	assert.Error(t, err)
}

func TestOpenSysfsMissingChip(t *testing.T) {
	fakeSysfs(t)

	_, err := OpenSysfs(3, 0, 1000, 255)
	assert.Error(t, err)
}

func TestSysfsSetDutyScalesToPeriod(t *testing.T) {
	writes := fakeSysfs(t)
	a, err := OpenSysfs(0, 0, 1000, 255)
	require.NoError(t, err)

	require.NoError(t, a.SetDuty(255))
	assert.Equal(t, "1000000", writes["pwmchip0/pwm0/duty_cycle"])

	require.NoError(t, a.SetDuty(60))
	assert.Equal(t, "235294", writes["pwmchip0/pwm0/duty_cycle"])

	duty, err := a.Duty()
	require.NoError(t, err)
	assert.Equal(t, uint32(60), duty)

	assert.ErrorIs(t, a.SetDuty(256), ErrHardwareFault)
}

func TestSysfsEnableDisable(t *testing.T) {
	writes := fakeSysfs(t)
	a, err := OpenSysfs(0, 0, 1000, 255)
	require.NoError(t, err)

	require.NoError(t, a.Enable())
	assert.Equal(t, "1", writes["pwmchip0/pwm0/enable"])

	require.NoError(t, a.Disable())
	require.NoError(t, a.Disable())
	assert.Equal(t, "0", writes["pwmchip0/pwm0/enable"])
}

func TestSysfsWriteFailureIsHardwareFault(t *testing.T) {
	fakeSysfs(t)
	a, err := OpenSysfs(0, 0, 1000, 255)
	require.NoError(t, err)

	writeAttr = func(path, value string) error { return errors.New("EIO") }

	assert.ErrorIs(t, a.SetDuty(10), ErrHardwareFault)
	assert.ErrorIs(t, a.Enable(), ErrHardwareFault)
	assert.ErrorIs(t, a.Disable(), ErrHardwareFault)

	duty, _ := a.Duty()
	assert.Zero(t, duty, "failed write leaves last duty unchanged")
}

func TestWriteSysfsRegularFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "enable")
	require.NoError(t, os.WriteFile(p, nil, 0o644))

	require.NoError(t, writeSysfs(p, "1"))

	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "1", string(b))
}

func TestOpenSysfsExportsChannel(t *testing.T) {
	writes := fakeSysfs(t)
	base := sysfsBase
	recorder := writeAttr
	writeAttr = func(path, value string) error {
		if filepath.Base(path) == "export" {
			if err := os.MkdirAll(filepath.Join(filepath.Dir(path), "pwm"+value), 0o755); err != nil {
				return err
			}
		}
		return recorder(path, value)
	}

	a, err := OpenSysfs(0, 1, 1000, 255)
	require.NoError(t, err)

	assert.Equal(t, "1", writes["pwmchip0/export"])
	assert.Equal(t, "1000000", writes["pwmchip0/pwm1/period"])
	assert.DirExists(t, filepath.Join(base, "pwmchip0", "pwm1"))
	assert.Equal(t, uint32(255), a.MaxDuty())
}

func TestOpenSysfsExportFailure(t *testing.T) {
	fakeSysfs(t)
	writeAttr = func(path, value string) error { return errors.New("EBUSY") }

	_, err := OpenSysfs(0, 1, 1000, 255)
	assert.ErrorContains(t, err, "export channel 1")
}

func TestOpenSysfsExportTimesOut(t *testing.T) {
	writes := fakeSysfs(t)

	_, err := OpenSysfs(0, 1, 1000, 255)
	require.Error(t, err)
	assert.Equal(t, "1", writes["pwmchip0/export"])
	assert.ErrorContains(t, err, "missing")
}
