package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mvik/battwatch/domain"
)

// Config represents the full service configuration. All values are read once
// at startup and are read-only for the lifetime of the process.
type Config struct {
	Channels     ChannelsConfig     `yaml:"channels"`
	Sampling     SamplingConfig     `yaml:"sampling"`
	Cycle        CycleConfig        `yaml:"cycle"`
	Connectivity ConnectivityConfig `yaml:"connectivity"`
	Mail         MailConfig         `yaml:"mail"`
	ADC          ADCConfig          `yaml:"adc"`
	State        StateConfig        `yaml:"state"`
	Debug        bool               `yaml:"debug"`
}

// ChannelsConfig holds the two battery channel definitions.
type ChannelsConfig struct {
	A ChannelConfig `yaml:"a"`
	B ChannelConfig `yaml:"b"`
}

// ChannelConfig contains per-battery thresholds and calibration.
type ChannelConfig struct {
	Name        string  `yaml:"name"`
	Input       string  `yaml:"input"`       // analog input identifier
	Calibration float64 `yaml:"calibration"` // raw-to-volts divisor
	WarnLow     float64 `yaml:"warn_low"`
	AlarmLow    float64 `yaml:"alarm_low"`
	Monitored   bool    `yaml:"monitored"`
}

// SamplingConfig contains voltage measurement parameters.
type SamplingConfig struct {
	Count int           `yaml:"count"` // raw samples averaged per measurement
	Delay time.Duration `yaml:"delay"` // delay between consecutive raw samples
}

// CycleConfig contains wake cycle timing and heartbeat parameters.
type CycleConfig struct {
	Sleep             time.Duration `yaml:"sleep"`              // suspended duration between cycles
	HeartbeatInterval uint64        `yaml:"heartbeat_interval"` // cycles between "operating normally" messages
	SubjectSeparator  string        `yaml:"subject_separator"`
}

// ConnectivityConfig bounds the transport reachability probe.
type ConnectivityConfig struct {
	Attempts int           `yaml:"attempts"`
	Interval time.Duration `yaml:"interval"`
}

// MailConfig contains the SMTP notification settings. The account password is
// deliberately not part of the file and comes from the environment instead.
type MailConfig struct {
	Host       string   `yaml:"host"`
	Port       int      `yaml:"port"`
	FromName   string   `yaml:"from_name"`
	From       string   `yaml:"from"`
	Recipients []string `yaml:"recipients"`
	SendMail   bool     `yaml:"send_mail"` // set false to log instead of sending
}

// ADCConfig selects and configures the raw sample source.
type ADCConfig struct {
	Kind   string       `yaml:"kind"` // serial, iio or mock
	Serial SerialConfig `yaml:"serial"`
	IIO    IIOConfig    `yaml:"iio"`
}

// SerialConfig contains serial port configuration for an attached sampling MCU.
type SerialConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// IIOConfig points at a sysfs industrial-IO device directory.
type IIOConfig struct {
	Device string `yaml:"device"`
}

// StateConfig locates state that must survive between cycles and restarts.
type StateConfig struct {
	CounterFile string `yaml:"counter_file"`
}

// Default returns the stock configuration for a twin 12 V lead-acid bank.
func Default() *Config {
	return &Config{
		Channels: ChannelsConfig{
			A: ChannelConfig{
				Name:        "Engine",
				Input:       "34",
				Calibration: 189,
				WarnLow:     11.5,
				AlarmLow:    10.5,
				Monitored:   true,
			},
			B: ChannelConfig{
				Name:        "DeepCycle",
				Input:       "35",
				Calibration: 179,
				WarnLow:     11.5,
				AlarmLow:    10.5,
				Monitored:   true,
			},
		},
		Sampling: SamplingConfig{
			Count: 25,
			Delay: 50 * time.Millisecond,
		},
		Cycle: CycleConfig{
			Sleep:             30 * time.Minute,
			HeartbeatInterval: 1,
			SubjectSeparator:  "; ",
		},
		Connectivity: ConnectivityConfig{
			Attempts: 25,
			Interval: 100 * time.Millisecond,
		},
		Mail: MailConfig{
			Port:     465,
			FromName: "Battery Monitor",
			SendMail: true,
		},
		ADC: ADCConfig{
			Kind: "iio",
			Serial: SerialConfig{
				Port: "/dev/ttyACM0",
				Baud: 115200,
			},
			IIO: IIOConfig{
				Device: "/sys/bus/iio/devices/iio:device0",
			},
		},
		State: StateConfig{
			CounterFile: "/var/lib/battwatch/wakecount",
		},
	}
}

// Load reads a YAML configuration file on top of the defaults. A missing file
// is not an error; the defaults are returned as-is.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Sampling.Count <= 0 {
		return fmt.Errorf("sampling count must be positive, got %d", c.Sampling.Count)
	}
	if c.Cycle.HeartbeatInterval == 0 {
		return fmt.Errorf("heartbeat interval must be at least 1")
	}
	for _, ch := range []ChannelConfig{c.Channels.A, c.Channels.B} {
		if !ch.Monitored {
			continue
		}
		if ch.Calibration <= 0 {
			return fmt.Errorf("channel %q calibration must be positive", ch.Name)
		}
		if ch.AlarmLow > ch.WarnLow {
			return fmt.Errorf("channel %q alarm threshold %.2f exceeds warn threshold %.2f", ch.Name, ch.AlarmLow, ch.WarnLow)
		}
	}
	if c.Mail.SendMail {
		if c.Mail.Host == "" || c.Mail.From == "" {
			return fmt.Errorf("mail host and from address are required when send_mail is enabled")
		}
		if len(c.Mail.Recipients) == 0 {
			return fmt.Errorf("at least one mail recipient is required when send_mail is enabled")
		}
	}
	return nil
}

// BatteryChannels returns the channel definitions in A-then-B order.
func (c *Config) BatteryChannels() []domain.Channel {
	return []domain.Channel{
		c.Channels.A.toDomain(domain.ChannelA),
		c.Channels.B.toDomain(domain.ChannelB),
	}
}

func (cc ChannelConfig) toDomain(id domain.ChannelID) domain.Channel {
	return domain.Channel{
		ID:          id,
		Name:        cc.Name,
		Input:       cc.Input,
		Calibration: cc.Calibration,
		WarnLow:     cc.WarnLow,
		AlarmLow:    cc.AlarmLow,
		Monitored:   cc.Monitored,
	}
}

// ProbeAddr is the endpoint the connectivity checker dials to decide whether
// the network is reachable before a notification is attempted.
func (c *Config) ProbeAddr() string {
	return fmt.Sprintf("%s:%d", c.Mail.Host, c.Mail.Port)
}
