// Command contactor-driver energizes PWM-driven contactors from debounced
// sense inputs and blinks their state on a status LED.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/sweeney/contactor-driver/internal/config"
	"github.com/sweeney/contactor-driver/internal/contactor"
	"github.com/sweeney/contactor-driver/internal/gpio"
	"github.com/sweeney/contactor-driver/internal/indicator"
	"github.com/sweeney/contactor-driver/internal/pwm"
	"github.com/sweeney/contactor-driver/internal/status"
)

var channelNames = [contactor.MaxChannels]string{"A", "B"}

func main() {
	app := kingpin.New("contactor-driver", "Drives contactor coils through PWM from debounced sense inputs.")
	app.HelpFlag.Short('h')
	cfg := config.Register(app)
	kingpin.MustParse(app.Parse(os.Args[1:]))

	if err := run(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// peripherals holds everything acquired at startup so it can be released in
// reverse order. PWM channels are not released: contactors keep whatever
// state they were last commanded.
type peripherals struct {
	closers []io.Closer
}

func (p *peripherals) add(c io.Closer) {
	p.closers = append(p.closers, c)
}

func (p *peripherals) Close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i].Close(); err != nil {
			log.Printf("release: %v", err)
		}
	}
}

func acquireFault(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", config.ErrConfiguration, what, err)
}

func run(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	mode := cfg.ContactorMode()

	var hw peripherals
	defer hw.Close()

	chip, err := gpio.OpenChip(cfg.GPIOChip)
	if err != nil {
		return acquireFault("gpio", err)
	}
	hw.add(chip)

	// Sense lines: one per channel, or only A in ganged mode.
	pins := []int{cfg.SensePinA, cfg.SensePinB}[:cfg.Channels]
	if mode == contactor.ModeGanged {
		pins = pins[:1]
	}
	senses := make([]gpio.Input, 0, len(pins))
	for _, pin := range pins {
		in, err := chip.RequestInput(cfg.SenseInput(pin))
		if err != nil {
			return acquireFault("sense input", err)
		}
		hw.add(in)
		senses = append(senses, in)
	}

	var rate gpio.Input
	if cfg.RatePin >= 0 {
		in, err := chip.RequestInput(cfg.SenseInput(cfg.RatePin))
		if err != nil {
			return acquireFault("rate input", err)
		}
		hw.add(in)
		rate = in
	}

	if cfg.PrintState {
		return printState(os.Stdout, senses, rate)
	}

	pwmChannels := []int{cfg.PWMChannelA, cfg.PWMChannelB}[:cfg.Channels]
	chans := make([]contactor.ChannelIO, 0, cfg.Channels)
	for i, pc := range pwmChannels {
		act, err := pwm.OpenSysfs(cfg.PWMChip, pc, cfg.FrequencyHz, cfg.MaxDuty)
		if err != nil {
			return acquireFault("pwm", err)
		}
		ch := contactor.ChannelIO{Name: channelNames[i], Actuator: pwm.NewGuard(act)}
		if mode == contactor.ModeIndependent {
			ch.Sense = senses[i]
		}
		chans = append(chans, ch)
	}

	if cfg.Sweep {
		return sweep(chans, cfg.SweepStep, time.Sleep)
	}

	var shared gpio.Input
	if mode == contactor.ModeGanged {
		shared = senses[0]
	}

	start := time.Now()
	coord, err := contactor.New(contactor.Config{
		Mode:     mode,
		Timing:   cfg.Timing(),
		HoldRate: cfg.HoldRate,
		Start:    start,
	}, chans, shared, rate)
	if err != nil {
		return fmt.Errorf("%w: %w", config.ErrConfiguration, err)
	}

	tracker := status.NewTracker(start, status.Config{
		PollMs:       cfg.Poll.Milliseconds(),
		DebounceMs:   cfg.Debounce.Milliseconds(),
		ChangeoverMs: cfg.Changeover.Milliseconds(),
		HeartbeatMs:  cfg.Heartbeat.Milliseconds(),
		Mode:         coord.Mode(),
	})

	var led kicker
	if cfg.LEDPin >= 0 {
		out, err := chip.RequestOutput(cfg.LEDPin)
		if err != nil {
			return acquireFault("status led", err)
		}
		hw.add(out)

		ind := indicator.New(out, tracker, nil)
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			defer close(done)
			ind.Run(ctx)
		}()
		// The pin is released by hw.Close, so the pass in flight must end first.
		defer func() {
			cancel()
			<-done
		}()
		led = ind
	}

	log.Printf("started: %s channels=%d hold=%d/%d",
		status.FormatConfig(tracker.Snapshot().Config), len(coord.Channels()), coord.HoldRate(), coord.MaxDuty())

	ticker := time.NewTicker(cfg.Poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(coord, tracker, led, cfg.Heartbeat, time.Now, ticker.C, sigCh)
}

// kicker requests a status indicator pass without blocking.
type kicker interface {
	Kick() bool
}

// runLoop polls the coordinator once per tick, publishes the snapshot for
// the indicator and kicks it. An activation failure ends the loop with an
// error. A signal ends it cleanly without commanding the contactors.
func runLoop(coord *contactor.Coordinator, tracker *status.Tracker, led kicker, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down: %s", s, status.FormatLine(tracker.Snapshot()))
			return nil

		case <-tick:
			if err := coord.Tick(); err != nil {
				return fmt.Errorf("control loop: %w", err)
			}

			tracker.Update(coord.HoldRate(), coord.MaxDuty(), coord.Status())
			if led != nil {
				led.Kick()
			}

			if hb := coord.CheckHeartbeat(now(), heartbeat); hb != nil {
				log.Printf("heartbeat: uptime=%v hold=%d %s",
					hb.Uptime.Truncate(time.Second), hb.HoldRate, status.FormatCounts(hb.Channels))
			}
		}
	}
}

// sweepSteps is the number of duty levels visited by --sweep.
const sweepSteps = 10

// sweep walks each channel through MaxDuty*n/10 for n = 1..10, holding every
// level for step, then disables it. Channels are swept one after another.
func sweep(chans []contactor.ChannelIO, step time.Duration, sleep func(time.Duration)) error {
	for _, ch := range chans {
		act := ch.Actuator
		max := act.MaxDuty()
		if err := act.Enable(); err != nil {
			return fmt.Errorf("sweep %s: enable: %w", ch.Name, err)
		}
		for n := uint32(1); n <= sweepSteps; n++ {
			duty := max * n / sweepSteps
			log.Printf("sweep %s: duty %d/%d (%d/%d)", ch.Name, n, sweepSteps, duty, max)
			if err := act.SetDuty(duty); err != nil {
				return errors.Join(
					fmt.Errorf("sweep %s: set duty %d: %w", ch.Name, duty, err),
					act.Disable())
			}
			sleep(step)
		}
		if err := act.Disable(); err != nil {
			return fmt.Errorf("sweep %s: disable: %w", ch.Name, err)
		}
	}
	return nil
}

// printState writes the current level of every sense input.
func printState(w io.Writer, senses []gpio.Input, rate gpio.Input) error {
	for i, in := range senses {
		v, err := in.Read()
		if err != nil {
			return fmt.Errorf("read sense %s: %w", channelNames[i], err)
		}
		fmt.Fprintf(w, "%s: %s\n", channelNames[i], levelString(v))
	}
	if rate != nil {
		v, err := rate.Read()
		if err != nil {
			return fmt.Errorf("read rate input: %w", err)
		}
		fmt.Fprintf(w, "RATE: %s\n", levelString(v))
	}
	return nil
}

func levelString(asserted bool) string {
	if asserted {
		return "ASSERTED"
	}
	return "RELEASED"
}
