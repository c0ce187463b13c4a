package main

import (
	"fmt"
	"os"
	"strconv"

	"git.sr.ht/~emersion/go-scfg"
)

// Config is the parsed content of an ircsh configuration file, e.g.:
//
//	addr irc.example.org:6697
//	nick myname
//	user myident
//	realname "My Name"
//	tls starttls
//	sasl-plain myuser
//	ping-timeout 300
//	channel "#test"
//	channel "#other"
type Config struct {
	Addr     string
	Nick     string
	User     string
	RealName string

	TLSMode string // "none", "tls", "starttls", "starttls-required"

	SASLUsername string
	HasSASL      bool

	PingTimeout int // seconds

	Channels []string
	Debug    bool
}

func loadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("ircsh: open config: %w", err)
	}
	defer f.Close()

	block, err := scfg.Load(f)
	if err != nil {
		return Config{}, fmt.Errorf("ircsh: parse config: %w", err)
	}

	cfg := Config{
		User:        "",
		TLSMode:     "tls",
		PingTimeout: 300,
	}

	for _, dir := range block {
		switch dir.Name {
		case "addr":
			if len(dir.Params) != 1 {
				return cfg, fmt.Errorf("ircsh: addr: expected 1 parameter")
			}
			cfg.Addr = dir.Params[0]
		case "nick":
			if len(dir.Params) != 1 {
				return cfg, fmt.Errorf("ircsh: nick: expected 1 parameter")
			}
			cfg.Nick = dir.Params[0]
		case "user":
			if len(dir.Params) != 1 {
				return cfg, fmt.Errorf("ircsh: user: expected 1 parameter")
			}
			cfg.User = dir.Params[0]
		case "realname":
			if len(dir.Params) != 1 {
				return cfg, fmt.Errorf("ircsh: realname: expected 1 parameter")
			}
			cfg.RealName = dir.Params[0]
		case "tls":
			if len(dir.Params) != 1 {
				return cfg, fmt.Errorf("ircsh: tls: expected 1 parameter")
			}
			cfg.TLSMode = dir.Params[0]
		case "sasl-plain":
			if len(dir.Params) != 1 {
				return cfg, fmt.Errorf("ircsh: sasl-plain: expected 1 parameter")
			}
			cfg.SASLUsername = dir.Params[0]
			cfg.HasSASL = true
		case "ping-timeout":
			if len(dir.Params) != 1 {
				return cfg, fmt.Errorf("ircsh: ping-timeout: expected 1 parameter")
			}
			n, err := strconv.Atoi(dir.Params[0])
			if err != nil {
				return cfg, fmt.Errorf("ircsh: ping-timeout: %w", err)
			}
			cfg.PingTimeout = n
		case "channel":
			if len(dir.Params) != 1 {
				return cfg, fmt.Errorf("ircsh: channel: expected 1 parameter")
			}
			cfg.Channels = append(cfg.Channels, dir.Params[0])
		case "debug":
			cfg.Debug = true
		default:
			return cfg, fmt.Errorf("ircsh: unknown directive %q", dir.Name)
		}
	}

	if cfg.Addr == "" {
		return cfg, fmt.Errorf("ircsh: addr is required")
	}
	if cfg.Nick == "" {
		return cfg, fmt.Errorf("ircsh: nick is required")
	}
	if cfg.User == "" {
		cfg.User = cfg.Nick
	}
	if cfg.RealName == "" {
		cfg.RealName = cfg.Nick
	}

	return cfg, nil
}
