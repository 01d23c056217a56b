// Command ax25demo exercises a Station end to end: it opens one of the
// three PhysicalChannel transports, wires it to a link.Codec built from
// a config file (or the built-in defaults), and either sends a payload
// read from stdin or prints whatever payloads it receives.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/parsat/ax25link/internal/logger"
	"github.com/parsat/ax25link/pkg/channel"
	"github.com/parsat/ax25link/pkg/config"
)

func main() {
	var (
		transport  = pflag.StringP("transport", "t", "tcp", "Transport to use: tcp, udp, or quic.")
		address    = pflag.StringP("address", "a", ":7025", "\"host:port\" to listen on or connect to.")
		server     = pflag.BoolP("server", "s", false, "Bind and listen instead of connecting out.")
		configFile = pflag.StringP("config", "c", "", "Path to a YAML config file. Defaults to the built-in identity/chunking settings.")
		verbose    = pflag.BoolP("verbose", "v", false, "Enable debug logging.")
		help       = pflag.BoolP("help", "h", false, "Display help text.")
	)

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "ax25demo - send or receive an AX.25 UI frame over a pluggable transport.\n\n")
		fmt.Fprintf(os.Stderr, "Usage: ax25demo [options]\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(0)
	}

	level := logger.LevelInfo
	if *verbose {
		level = logger.LevelDebug
	}
	log := logger.NewDefaultLogger(level)

	cfg := config.DefaultConfig()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			log.Error("loading config: %v", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	codec, err := cfg.NewCodec()
	if err != nil {
		log.Error("building codec: %v", err)
		os.Exit(1)
	}

	phys, err := openTransport(*transport, *address, *server)
	if err != nil {
		log.Error("opening transport: %v", err)
		os.Exit(1)
	}

	st := channel.New(*transport, phys, codec, log)
	st.SetDataCallback(func(payload []byte) {
		fmt.Printf("recv: %q\n", payload)
	})

	if err := st.Open(); err != nil {
		log.Error("opening station: %v", err)
		os.Exit(1)
	}
	defer st.Close()

	if !*server {
		if err := sendStdin(st); err != nil {
			log.Error("sending: %v", err)
			os.Exit(1)
		}
		return
	}

	log.Info("listening on %s (%s), press Ctrl-C to stop", *address, *transport)
	select {}
}

func openTransport(transport, address string, server bool) (channel.PhysicalChannel, error) {
	switch transport {
	case "tcp":
		return channel.NewTCPChannel(channel.TCPChannelConfig{
			Address:      address,
			IsServer:     server,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 10 * time.Second,
		})
	case "udp":
		return channel.NewUDPChannel(channel.UDPChannelConfig{
			Address:      address,
			IsServer:     server,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 10 * time.Second,
		})
	case "quic":
		return channel.NewQUICChannel(channel.QUICChannelConfig{
			Address:      address,
			IsServer:     server,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 10 * time.Second,
		})
	default:
		return nil, fmt.Errorf("unknown transport %q, want tcp, udp, or quic", transport)
	}
}

func sendStdin(st *channel.Station) error {
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return err
	}
	if len(line) == 0 {
		return nil
	}
	return st.SendPayload([]byte(line))
}
