// Command ircsh is a minimal, scriptable driver for the irc package: it
// dials a server, optionally negotiates TLS/STARTTLS and SASL, and prints
// channel and private messages, joins, parts, errors and registration to
// stdout. It does not read commands from stdin. It exists to exercise
// irc.Session end to end, not as a user-facing client.
package main

import (
	"bufio"
	"bytes"
	"crypto/tls"
	"flag"
	"fmt"
	"net"
	"os"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"git.sr.ht/~wgreenwood/ircsession/irc"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to the configuration file")
	flag.Parse()

	if configPath == "" {
		fmt.Fprintln(os.Stderr, "ircsh: -config is required")
		os.Exit(1)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ircsh: %s\n", err)
		os.Exit(1)
	}

	password := ""
	if cfg.HasSASL {
		password, err = promptPassword(cfg.SASLUsername)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ircsh: reading password: %s\n", err)
			os.Exit(1)
		}
	}

	tlsMode := irc.TlsTls
	switch cfg.TLSMode {
	case "none":
		tlsMode = irc.TlsPlaintext
	case "starttls":
		tlsMode = irc.TlsStartTlsOptional
	case "starttls-required":
		tlsMode = irc.TlsStartTlsRequired
	case "tls", "":
		tlsMode = irc.TlsTls
	default:
		fmt.Fprintf(os.Stderr, "ircsh: unknown tls mode %q\n", cfg.TLSMode)
		os.Exit(1)
	}

	saslMode := irc.SaslDisabled
	if cfg.HasSASL {
		saslMode = irc.SaslRequired
	}

	host, portStr, err := net.SplitHostPort(cfg.Addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ircsh: %s\n", err)
		os.Exit(1)
	}
	port := 6667
	fmt.Sscanf(portStr, "%d", &port)

	user := irc.NewLocalUser(cfg.Nick, cfg.User, cfg.RealName)
	sess, err := irc.NewSession(user, host, irc.Config{
		PingTimeout:            time.Duration(cfg.PingTimeout) * time.Second,
		SaslAuthenticationMode: saslMode,
		SaslUsername:           cfg.SASLUsername,
		SaslPassword:           password,
		Tls:                    tlsMode,
		Debug:                  cfg.Debug,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "ircsh: %s\n", err)
		os.Exit(1)
	}

	conn, tlsActive, err := dial(cfg.Addr, tlsMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ircsh: connect: %s\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	if err := sess.Connect(host, port); err != nil {
		fmt.Fprintf(os.Stderr, "ircsh: %s\n", err)
		os.Exit(1)
	}
	sess.NotifyTransportReady(tlsActive)
	flushOutbound(conn, sess)

	lines := make(chan string)
	go readLines(conn, lines)

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for cfg.Channels != nil || sess.State() != irc.Online {
		select {
		case text, ok := <-lines:
			if !ok {
				return
			}
			line, err := irc.ParseLine(text)
			if err != nil {
				continue
			}
			if line.Command == "670" && sess.State() == irc.SslHandshaking {
				upgraded, err := upgradeTLS(conn, host)
				if err != nil {
					fmt.Fprintf(os.Stderr, "ircsh: starttls handshake: %s\n", err)
					return
				}
				conn = upgraded
				sess.NotifyTransportReady(true)
				flushOutbound(conn, sess)
				continue
			}
			sess.HandleLine(line)
			printEvents(sess)
			flushOutbound(conn, sess)
			if sess.State() == irc.Online && cfg.Channels != nil {
				for _, ch := range cfg.Channels {
					sess.Join(ch)
				}
				flushOutbound(conn, sess)
				cfg.Channels = nil
			}
		case now := <-ticker.C:
			sess.Tick(now)
			printEvents(sess)
			flushOutbound(conn, sess)
		}
	}

	for text := range lines {
		line, err := irc.ParseLine(text)
		if err != nil {
			continue
		}
		sess.HandleLine(line)
		printEvents(sess)
		flushOutbound(conn, sess)
	}
}

func dial(addr string, mode irc.TlsMode) (net.Conn, bool, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, false, err
	}
	if mode != irc.TlsTls && mode != irc.TlsNoCertCheck {
		return conn, false, nil
	}
	host, _, _ := net.SplitHostPort(addr)
	tlsConn, err := upgradeTLS(conn, host)
	if err != nil {
		conn.Close()
		return nil, false, err
	}
	return tlsConn, true, nil
}

func upgradeTLS(conn net.Conn, host string) (net.Conn, error) {
	tlsConn := tls.Client(conn, &tls.Config{ServerName: host})
	if err := tlsConn.Handshake(); err != nil {
		return nil, err
	}
	return tlsConn, nil
}

func readLines(conn net.Conn, out chan<- string) {
	defer close(out)
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 8192), irc.MaxTaggedLineLength+2)
	for scanner.Scan() {
		text := strings.TrimRight(scanner.Text(), "\r")
		if text == "" {
			continue
		}
		out <- text
	}
}

func flushOutbound(conn net.Conn, sess *irc.Session) {
	var buf bytes.Buffer
	for _, line := range sess.Outbound() {
		buf.WriteString(line)
		buf.WriteString("\r\n")
	}
	if buf.Len() > 0 {
		conn.Write(buf.Bytes())
	}
}

func printEvents(sess *irc.Session) {
	for _, ev := range sess.Events() {
		switch e := ev.(type) {
		case irc.ChannelMessage:
			fmt.Printf("<%s:%s> %s\n", e.Channel, e.User, e.Content)
		case irc.PrivateMessage:
			fmt.Printf("*%s* %s\n", e.User, e.Content)
		case irc.ChannelJoin:
			fmt.Printf("-- %s joined %s\n", e.User, e.Channel)
		case irc.ChannelPart:
			fmt.Printf("-- %s left %s (%s)\n", e.User, e.Channel, e.Reason)
		case irc.ErrorEvent:
			fmt.Printf("!! %s %s\n", e.Code, e.Message)
		case irc.RegisteredEvent:
			fmt.Println("-- registered")
		default:
			// Other event kinds are available via sess.Events() for a
			// fuller client; this demo only prints the common ones.
		}
	}
}

func promptPassword(username string) (string, error) {
	fmt.Fprintf(os.Stderr, "SASL password for %s: ", username)
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}
