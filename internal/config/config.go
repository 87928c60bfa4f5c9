// Package config binds the daemon's command-line flags. There are no
// configuration files; every flag can be overridden from a CONTACTOR_*
// environment variable.
package config

import (
	"errors"
	"fmt"
	"time"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/sweeney/contactor-driver/internal/contactor"
	"github.com/sweeney/contactor-driver/internal/gpio"
	"github.com/sweeney/contactor-driver/internal/pwm"
)

// ErrConfiguration marks startup failures: invalid flags or peripherals that
// could not be acquired. The daemon does not start the control loop.
var ErrConfiguration = errors.New("configuration fault")

// Allowed ranges for the timing flags.
const (
	MinPoll     = 500 * time.Millisecond
	MaxPoll     = 1000 * time.Millisecond
	MinDebounce = 100 * time.Millisecond
	MaxDebounce = 200 * time.Millisecond
)

// Config holds every daemon setting.
type Config struct {
	Poll       time.Duration
	Debounce   time.Duration
	Changeover time.Duration
	Heartbeat  time.Duration

	Mode     string
	Channels int

	HoldRate    uint32
	MaxDuty     uint32
	FrequencyHz int
	PWMChip     int
	PWMChannelA int
	PWMChannelB int

	GPIOChip       string
	SensePinA      int
	SensePinB      int
	RatePin        int // negative disables the rate-increase input
	LEDPin         int // negative disables the status indicator
	SensePull      string
	SenseActiveLow bool

	PrintState bool
	Sweep      bool
	SweepStep  time.Duration
}

// Register binds all flags on app and returns the Config they fill in.
func Register(app *kingpin.Application) *Config {
	c := &Config{}

	app.Flag("poll", "Control loop tick period (500ms-1s).").
		Default("500ms").OverrideDefaultFromEnvar("CONTACTOR_POLL").DurationVar(&c.Poll)
	app.Flag("debounce", "Sense debounce interval (100ms-200ms).").
		Default(contactor.DefaultDebounce.String()).OverrideDefaultFromEnvar("CONTACTOR_DEBOUNCE").DurationVar(&c.Debounce)
	app.Flag("changeover", "Full-duty interval before dropping to hold duty.").
		Default(contactor.DefaultChangeover.String()).OverrideDefaultFromEnvar("CONTACTOR_CHANGEOVER").DurationVar(&c.Changeover)
	app.Flag("heartbeat", "Heartbeat log interval (0 to disable).").
		Default("15m").OverrideDefaultFromEnvar("CONTACTOR_HEARTBEAT").DurationVar(&c.Heartbeat)

	app.Flag("mode", "Channel mode: independent sense lines or one ganged sense line.").
		Default(string(contactor.ModeIndependent)).OverrideDefaultFromEnvar("CONTACTOR_MODE").
		EnumVar(&c.Mode, string(contactor.ModeIndependent), string(contactor.ModeGanged))
	app.Flag("channels", "Number of contactor channels (1 or 2).").
		Default("2").OverrideDefaultFromEnvar("CONTACTOR_CHANNELS").IntVar(&c.Channels)

	app.Flag("hold-rate", "Initial holding duty.").
		Default(fmt.Sprint(contactor.DefaultHoldRate)).OverrideDefaultFromEnvar("CONTACTOR_HOLD_RATE").Uint32Var(&c.HoldRate)
	app.Flag("max-duty", "PWM duty resolution (full duty).").
		Default(fmt.Sprint(pwm.DefaultMaxDuty)).OverrideDefaultFromEnvar("CONTACTOR_MAX_DUTY").Uint32Var(&c.MaxDuty)
	app.Flag("pwm-frequency", "Coil PWM frequency in Hz.").
		Default(fmt.Sprint(pwm.DefaultFrequencyHz)).OverrideDefaultFromEnvar("CONTACTOR_PWM_FREQUENCY").IntVar(&c.FrequencyHz)
	app.Flag("pwm-chip", "sysfs pwmchip number.").
		Default("0").OverrideDefaultFromEnvar("CONTACTOR_PWM_CHIP").IntVar(&c.PWMChip)
	app.Flag("pwm-channel-a", "PWM channel driving contactor A.").
		Default("0").OverrideDefaultFromEnvar("CONTACTOR_PWM_CHANNEL_A").IntVar(&c.PWMChannelA)
	app.Flag("pwm-channel-b", "PWM channel driving contactor B.").
		Default("1").OverrideDefaultFromEnvar("CONTACTOR_PWM_CHANNEL_B").IntVar(&c.PWMChannelB)

	app.Flag("gpio-chip", "GPIO character device.").
		Default(gpio.DefaultChip).OverrideDefaultFromEnvar("CONTACTOR_GPIO_CHIP").StringVar(&c.GPIOChip)
	app.Flag("pin-a", "BCM pin sensing contactor A (the shared line in ganged mode).").
		Default(fmt.Sprint(gpio.DefaultPinA)).OverrideDefaultFromEnvar("CONTACTOR_PIN_A").IntVar(&c.SensePinA)
	app.Flag("pin-b", "BCM pin sensing contactor B.").
		Default(fmt.Sprint(gpio.DefaultPinB)).OverrideDefaultFromEnvar("CONTACTOR_PIN_B").IntVar(&c.SensePinB)
	app.Flag("pin-rate", "BCM pin of the hold-rate increase input (-1 to disable).").
		Default(fmt.Sprint(gpio.DefaultPinAux)).OverrideDefaultFromEnvar("CONTACTOR_PIN_RATE").IntVar(&c.RatePin)
	app.Flag("pin-led", "BCM pin of the status LED (-1 to disable).").
		Default(fmt.Sprint(gpio.DefaultPinLED)).OverrideDefaultFromEnvar("CONTACTOR_PIN_LED").IntVar(&c.LEDPin)
	app.Flag("sense-pull", "Bias on sense inputs: up, down or none.").
		Default(string(gpio.PullUp)).OverrideDefaultFromEnvar("CONTACTOR_SENSE_PULL").
		EnumVar(&c.SensePull, string(gpio.PullUp), string(gpio.PullDown), string(gpio.PullNone))
	app.Flag("sense-active-low", "Sense inputs are asserted when electrically low.").
		Default("true").OverrideDefaultFromEnvar("CONTACTOR_SENSE_ACTIVE_LOW").BoolVar(&c.SenseActiveLow)

	app.Flag("print-state", "Print current sense inputs and exit.").BoolVar(&c.PrintState)
	app.Flag("sweep", "Step every PWM channel through ten duty levels and exit. Energizes the contactors.").BoolVar(&c.Sweep)
	app.Flag("sweep-step", "How long --sweep holds each duty level.").
		Default("2s").OverrideDefaultFromEnvar("CONTACTOR_SWEEP_STEP").DurationVar(&c.SweepStep)

	return c
}

// Validate checks ranges and cross-flag constraints.
func (c *Config) Validate() error {
	if c.Poll < MinPoll || c.Poll > MaxPoll {
		return fmt.Errorf("%w: poll %v outside %v..%v", ErrConfiguration, c.Poll, MinPoll, MaxPoll)
	}
	if c.Debounce < MinDebounce || c.Debounce > MaxDebounce {
		return fmt.Errorf("%w: debounce %v outside %v..%v", ErrConfiguration, c.Debounce, MinDebounce, MaxDebounce)
	}
	if c.Changeover <= 0 {
		return fmt.Errorf("%w: changeover must be positive", ErrConfiguration)
	}
	if c.Heartbeat < 0 {
		return fmt.Errorf("%w: heartbeat must not be negative", ErrConfiguration)
	}
	if c.Channels < 1 || c.Channels > contactor.MaxChannels {
		return fmt.Errorf("%w: channels %d outside 1..%d", ErrConfiguration, c.Channels, contactor.MaxChannels)
	}
	mode, err := contactor.ParseMode(c.Mode)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	if mode == contactor.ModeGanged && c.Channels != contactor.MaxChannels {
		return fmt.Errorf("%w: ganged mode needs %d channels", ErrConfiguration, contactor.MaxChannels)
	}
	if c.MaxDuty == 0 {
		return fmt.Errorf("%w: max duty must be positive", ErrConfiguration)
	}
	if c.HoldRate > c.MaxDuty {
		return fmt.Errorf("%w: hold rate %d exceeds max duty %d", ErrConfiguration, c.HoldRate, c.MaxDuty)
	}
	if c.FrequencyHz <= 0 {
		return fmt.Errorf("%w: pwm frequency must be positive", ErrConfiguration)
	}
	if c.Channels == 2 && c.PWMChannelA == c.PWMChannelB {
		return fmt.Errorf("%w: both contactors on pwm channel %d", ErrConfiguration, c.PWMChannelA)
	}
	if c.SweepStep <= 0 {
		return fmt.Errorf("%w: sweep step must be positive", ErrConfiguration)
	}
	if _, err := gpio.ParsePull(c.SensePull); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return nil
}

// ContactorMode returns the parsed mode. Call after Validate.
func (c *Config) ContactorMode() contactor.Mode {
	m, _ := contactor.ParseMode(c.Mode)
	return m
}

// SenseInput returns the request config for a sense pin.
func (c *Config) SenseInput(pin int) gpio.InputConfig {
	pull, _ := gpio.ParsePull(c.SensePull)
	return gpio.InputConfig{Pin: pin, Pull: pull, ActiveLow: c.SenseActiveLow}
}

// Timing returns the contactor timing.
func (c *Config) Timing() contactor.Timing {
	return contactor.Timing{Debounce: c.Debounce, Changeover: c.Changeover}
}
