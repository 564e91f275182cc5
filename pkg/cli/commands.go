package cli

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/cankit/ftcan/pkg/adapter"
	"github.com/cankit/ftcan/pkg/canlog"
	"github.com/cankit/ftcan/pkg/transport"
)

var commands = []*ishell.Cmd{
	&portsCmd,
	&connectCmd,
	&disconnectCmd,
	&versionCmd,
	&healthCmd,
	&safetyCmd,
	&speedCmd,
	&heartbeatCmd,
	&sendCmd,
	&recvCmd,
	&statsCmd,
	&logCmd,
}

var portsCmd = ishell.Cmd{
	Name: "ports",
	Help: "list candidate serial devices",
	Func: func(c *ishell.Context) {
		ports, err := transport.ListPorts()
		if err != nil {
			c.Err(err)
			return
		}
		if len(ports) == 0 {
			c.Println("no serial devices found")
			return
		}
		for _, p := range ports {
			c.Println(p)
		}
	},
}

var connectCmd = ishell.Cmd{
	Name: "connect",
	Help: "connect <device>: open the adapter",
	Func: func(c *ishell.Context) {
		if len(c.Args) != 1 {
			c.Err(fmt.Errorf("usage: connect <device>"))
			return
		}
		s := shellFrom(c)
		if err := s.connect(c.Args[0]); err != nil {
			c.Err(err)
			return
		}
		c.Printf("connected, firmware %s\n", s.session.Version())
	},
}

var disconnectCmd = ishell.Cmd{
	Name: "disconnect",
	Help: "close the adapter",
	Func: func(c *ishell.Context) {
		shellFrom(c).disconnect()
	},
}

var versionCmd = ishell.Cmd{
	Name: "version",
	Help: "query firmware version",
	Func: needSession(func(c *ishell.Context) {
		c.Println(shellFrom(c).session.Version())
	}),
}

var healthCmd = ishell.Cmd{
	Name: "health",
	Help: "query adapter health",
	Func: needSession(func(c *ishell.Context) {
		h := shellFrom(c).session.Health()
		c.Printf("uptime:  %ds\n", h.Uptime)
		if h.Nominal {
			c.Printf("voltage: %.1fV (nominal)\n", h.Voltage)
			c.Printf("current: %.1fA (nominal)\n", h.Current)
		}
	}),
}

var safetyCmd = ishell.Cmd{
	Name: "safety",
	Help: "safety <mode> [param]: set the safety mode",
	Func: needSession(func(c *ishell.Context) {
		if len(c.Args) < 1 {
			c.Err(fmt.Errorf("usage: safety <mode> [param]"))
			return
		}
		mode, ok := adapter.ParseSafetyMode(c.Args[0])
		if !ok {
			c.Err(fmt.Errorf("unknown safety mode %q", c.Args[0]))
			return
		}
		var param uint16
		if len(c.Args) > 1 {
			v, err := strconv.ParseUint(c.Args[1], 0, 16)
			if err != nil {
				c.Err(err)
				return
			}
			param = uint16(v)
		}
		if !shellFrom(c).session.SetSafetyMode(mode, param) {
			c.Err(fmt.Errorf("no response"))
		}
	}),
}

var speedCmd = ishell.Cmd{
	Name: "speed",
	Help: "speed <bus> <kbps>: set a bus bitrate",
	Func: needSession(func(c *ishell.Context) {
		if len(c.Args) != 2 {
			c.Err(fmt.Errorf("usage: speed <bus> <kbps>"))
			return
		}
		bus, err := strconv.ParseUint(c.Args[0], 0, 8)
		if err != nil {
			c.Err(err)
			return
		}
		kbps, err := strconv.ParseUint(c.Args[1], 0, 16)
		if err != nil {
			c.Err(err)
			return
		}
		if !shellFrom(c).session.SetCANSpeed(uint8(bus), uint16(kbps)) {
			c.Err(fmt.Errorf("no response"))
		}
	}),
}

var heartbeatCmd = ishell.Cmd{
	Name: "heartbeat",
	Help: "send a heartbeat",
	Func: needSession(func(c *ishell.Context) {
		if !shellFrom(c).session.Heartbeat() {
			c.Err(fmt.Errorf("no response"))
		}
	}),
}

var sendCmd = ishell.Cmd{
	Name: "send",
	Help: "send <id-hex> <data-hex> [bus]: transmit one message",
	Func: needSession(func(c *ishell.Context) {
		if len(c.Args) < 2 {
			c.Err(fmt.Errorf("usage: send <id-hex> <data-hex> [bus]"))
			return
		}
		id, err := strconv.ParseUint(c.Args[0], 16, 32)
		if err != nil {
			c.Err(err)
			return
		}
		data, err := hex.DecodeString(c.Args[1])
		if err != nil {
			c.Err(err)
			return
		}
		var bus uint64
		if len(c.Args) > 2 {
			if bus, err = strconv.ParseUint(c.Args[2], 0, 8); err != nil {
				c.Err(err)
				return
			}
		}
		if !shellFrom(c).session.Send(uint32(id), data, uint8(bus)) {
			c.Err(fmt.Errorf("send failed"))
		}
	}),
}

var recvCmd = ishell.Cmd{
	Name: "recv",
	Help: "receive buffered messages",
	Func: needSession(func(c *ishell.Context) {
		msgs := shellFrom(c).session.Receive()
		for _, m := range msgs {
			c.Println(m.String())
		}
		c.Printf("%d message(s)\n", len(msgs))
	}),
}

var statsCmd = ishell.Cmd{
	Name: "stats",
	Help: "show transport counters",
	Func: needSession(func(c *ishell.Context) {
		st := shellFrom(c).session.Stats()
		c.Printf("frames sent/received: %d/%d\n", st.FramesSent, st.FramesReceived)
		c.Printf("bytes sent/received:  %d/%d\n", st.BytesSent, st.BytesReceived)
		c.Printf("errors:               %d\n", st.Errors)
		c.Printf("connected:            %v\n", st.Connected)
	}),
}

var logCmd = ishell.Cmd{
	Name: "log",
	Help: "log <file> [count]: capture messages to a CBOR log",
	Func: needSession(func(c *ishell.Context) {
		if len(c.Args) < 1 {
			c.Err(fmt.Errorf("usage: log <file> [count]"))
			return
		}
		count := 100
		if len(c.Args) > 1 {
			v, err := strconv.Atoi(c.Args[1])
			if err != nil {
				c.Err(err)
				return
			}
			count = v
		}
		out, err := os.Create(c.Args[0])
		if err != nil {
			c.Err(err)
			return
		}
		defer out.Close()
		w := canlog.NewWriter(out)
		session := shellFrom(c).session
		captured, idle := 0, 0
		for captured < count && idle < 10 {
			msgs := session.Receive()
			if len(msgs) == 0 {
				idle++
				continue
			}
			idle = 0
			if err := w.Write(msgs...); err != nil {
				c.Err(err)
				return
			}
			captured += len(msgs)
		}
		c.Printf("captured %d message(s) to %s\n", captured, c.Args[0])
	}),
}
