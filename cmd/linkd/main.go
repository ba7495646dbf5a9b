package main

import (
	"context"
	"flag"
	"io"
	"net"
	"net/http"
	"os"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/twinsoc/fifolink/pkg/bridge"
	"github.com/twinsoc/fifolink/pkg/bridge/mqtt"
	"github.com/twinsoc/fifolink/pkg/fifo"
	"github.com/twinsoc/fifolink/pkg/run"
	"github.com/twinsoc/fifolink/pkg/transport"
	"github.com/twinsoc/fifolink/pkg/transport/stream"
	ws "github.com/twinsoc/fifolink/pkg/transport/websocket"
)

var (
	listenAddr  = ":7730"
	wsAddr      = ""
	connectAddr = ""
	mqttURL     = ""
	secondary   = false
)

func init() {
	if val := os.Getenv("FIFOLINK_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&listenAddr, "listen", listenAddr, "Accept the peer connection on this address.")
	flag.StringVar(&wsAddr, "ws", wsAddr, "Accept the peer over websocket on this address instead of raw TCP.")
	flag.StringVar(&connectAddr, "connect", connectAddr, "Dial the peer instead of listening.")
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL for the debug bridge.")
	flag.BoolVar(&secondary, "secondary", secondary, "Play the secondary (relay) role in the reset handshake.")
}

// peerWire establishes the word wire to the peer endpoint: dial it over TCP,
// or accept exactly one connection, raw or websocket.
func peerWire() (transport.WordReadWriter, io.Closer, error) {
	if connectAddr != "" {
		conn, err := net.Dial("tcp", connectAddr)
		if err != nil {
			return nil, nil, err
		}
		glog.Infof("peer connected: %s", conn.RemoteAddr())
		return stream.New(conn), conn, nil
	}
	if wsAddr != "" {
		return acceptWS()
	}
	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return nil, nil, err
	}
	defer ln.Close()
	glog.Infof("waiting for peer on %s", listenAddr)
	conn, err := ln.Accept()
	if err != nil {
		return nil, nil, err
	}
	glog.Infof("peer connected: %s", conn.RemoteAddr())
	return stream.New(conn), conn, nil
}

// acceptWS serves a websocket endpoint and hands back the first connection.
// The handler for that connection parks forever; returning from it would
// close the peer wire.
func acceptWS() (transport.WordReadWriter, io.Closer, error) {
	connCh := make(chan *websocket.Conn, 1)
	go func() {
		err := http.ListenAndServe(wsAddr, websocket.Handler(func(conn *websocket.Conn) {
			select {
			case connCh <- conn:
				select {}
			default:
				conn.Close()
			}
		}))
		glog.Exit(err)
	}()
	glog.Infof("waiting for peer on ws://%s", wsAddr)
	conn := <-connCh
	glog.Infof("peer connected: %s", conn.Request().RemoteAddr)
	return ws.New(conn), conn, nil
}

func main() {
	flag.Parse()

	wire, closer, err := peerWire()
	if err != nil {
		glog.Exit(err)
	}

	link := fifo.NewLink(transport.NewPort(wire))

	role := fifo.RolePrimary
	if secondary {
		role = fifo.RoleSecondary
	}
	exiter := &fifo.Exiter{
		Boot: &fifo.BootControl{
			Signature:       fifo.BootSignature,
			RebootPrimary:   func() { glog.Info("reboot (primary)") },
			RebootSecondary: func() { glog.Info("reboot (secondary)") },
		},
		Role: role,
		OnFatal: func(code int) {
			glog.Errorf("fatal exit code %d", code)
		},
		Shutdown: func() { glog.Info("system shutdown") },
	}
	exiter.Bind(link)

	runner := run.NewRunner().HandleSignals()
	runner.Go("link", run.RunFunc(func(ctx context.Context) error {
		return run.WithContextCloser(ctx, closer, func() error {
			return link.Run(ctx)
		})
	}))

	if mqttURL != "" {
		q, err := mqtt.NewQueueFromURL(mqttURL)
		if err != nil {
			glog.Exit(err)
		}
		q.Connect()
		defer q.Close()
		runner.Go("bridge", bridge.New(q, link).Attach())
	}

	if err := runner.Wait(); err != nil {
		glog.Exit(err)
	}
}
