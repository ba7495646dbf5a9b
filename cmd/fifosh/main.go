package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"net"
	"strconv"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/twinsoc/fifolink/pkg/fifo"
	"github.com/twinsoc/fifolink/pkg/transport"
	"github.com/twinsoc/fifolink/pkg/transport/stream"
	ws "github.com/twinsoc/fifolink/pkg/transport/websocket"
)

var (
	connectAddr = "localhost:7730"
	wsURL       = ""
)

func init() {
	flag.StringVar(&connectAddr, "connect", connectAddr, "TCP address of the link endpoint.")
	flag.StringVar(&wsURL, "ws", wsURL, "Websocket URL of the link endpoint (overrides -connect).")
}

func dialPort() (transport.Port, error) {
	if wsURL != "" {
		conn, err := websocket.Dial(wsURL, "", "http://localhost/")
		if err != nil {
			return nil, err
		}
		return transport.NewPort(ws.New(conn)), nil
	}
	conn, err := net.Dial("tcp", connectAddr)
	if err != nil {
		return nil, err
	}
	return transport.NewPort(stream.New(conn)), nil
}

func argUint(c *ishell.Context, i int) (uint64, error) {
	if i >= len(c.Args) {
		return 0, fmt.Errorf("missing argument")
	}
	return strconv.ParseUint(c.Args[i], 0, 32)
}

func argChannel(c *ishell.Context) (fifo.Channel, error) {
	v, err := argUint(c, 0)
	if err != nil {
		return 0, err
	}
	ch := fifo.Channel(v)
	if !ch.IsValid() {
		return 0, &fifo.ChannelError{Channel: ch}
	}
	return ch, nil
}

func addCmds(shell *ishell.Shell, link *fifo.Link) {
	shell.AddCmd(&ishell.Cmd{
		Name: "value32",
		Help: "value32 <channel> <value>: send an immediate value",
		Func: func(c *ishell.Context) {
			ch, err := argChannel(c)
			if err != nil {
				c.Err(err)
				return
			}
			v, err := argUint(c, 1)
			if err != nil {
				c.Err(err)
				return
			}
			if err := link.SendValue32(ch, uint32(v)); err != nil {
				c.Err(err)
			}
		},
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "address",
		Help: "address <channel> <addr>: send a main-RAM address",
		Func: func(c *ishell.Context) {
			ch, err := argChannel(c)
			if err != nil {
				c.Err(err)
				return
			}
			v, err := argUint(c, 1)
			if err != nil {
				c.Err(err)
				return
			}
			if err := link.SendAddress(ch, uint32(v)); err != nil {
				c.Err(err)
			}
		},
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "data",
		Help: "data <channel> <hex-bytes>: send a data message",
		Func: func(c *ishell.Context) {
			ch, err := argChannel(c)
			if err != nil {
				c.Err(err)
				return
			}
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("missing argument"))
				return
			}
			b, err := hex.DecodeString(c.Args[1])
			if err != nil {
				c.Err(err)
				return
			}
			if err := link.SendData(ch, b); err != nil {
				c.Err(err)
			}
		},
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "command",
		Help: "command <code>: send a special command word",
		Func: func(c *ishell.Context) {
			v, err := argUint(c, 0)
			if err != nil {
				c.Err(err)
				return
			}
			if err := link.SendCommand(uint32(v)); err != nil {
				c.Err(err)
			}
		},
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "reset",
		Help: "ask the primary CPU to reset the system",
		Func: func(c *ishell.Context) {
			if err := link.SendCommand(fifo.CmdResetPrimary); err != nil {
				c.Err(err)
			}
		},
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "pending",
		Help: "pending <channel>: staged word count",
		Func: func(c *ishell.Context) {
			ch, err := argChannel(c)
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(link.Pending(ch))
		},
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "get",
		Help: "get <channel>: drain one staged value or address",
		Func: func(c *ishell.Context) {
			ch, err := argChannel(c)
			if err != nil {
				c.Err(err)
				return
			}
			v, err := link.Value32(ch)
			if err != nil {
				c.Err(err)
				return
			}
			c.Printf("%#x\n", v)
		},
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "getdata",
		Help: "getdata <channel>: drain one staged data message",
		Func: func(c *ishell.Context) {
			ch, err := argChannel(c)
			if err != nil {
				c.Err(err)
				return
			}
			b, err := link.Data(ch)
			if err != nil {
				c.Err(err)
				return
			}
			c.Printf("% x\n", b)
		},
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "dropped",
		Help: "count of inbound messages dropped on buffer exhaustion",
		Func: func(c *ishell.Context) {
			c.Println(link.Dropped())
		},
	})
}

func main() {
	flag.Parse()

	port, err := dialPort()
	if err != nil {
		glog.Exit(err)
	}
	link := fifo.NewLink(port)
	go func() {
		if err := link.Run(context.Background()); err != nil {
			glog.Errorf("link stopped: %v", err)
		}
	}()

	shell := ishell.New()
	shell.SetPrompt("fifo> ")
	addCmds(shell, link)
	shell.Run()
}
