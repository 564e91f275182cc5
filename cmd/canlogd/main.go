// canlogd captures bus traffic to a CBOR log file.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/golang/glog"

	"github.com/cankit/ftcan/pkg/adapter"
	"github.com/cankit/ftcan/pkg/canlog"
	"github.com/cankit/ftcan/pkg/transport"
)

var (
	device string
	baud   = transport.DefaultBaudRate
	out    = "capture.cbor"
	count  int // stop after this many messages, 0 for unbounded
)

func init() {
	flag.StringVar(&device, "device", device, "Serial device of the adapter.")
	flag.IntVar(&baud, "baud", baud, "Serial baud rate.")
	flag.StringVar(&out, "out", out, "Capture file.")
	flag.IntVar(&count, "count", count, "Stop after this many messages (0 = run forever).")
}

func main() {
	flag.Parse()
	if device == "" {
		log.Fatalln("-device is required")
	}

	session := adapter.New()
	if err := session.Connect(device, baud); err != nil {
		log.Fatalln(err)
	}
	defer session.Close()

	file, err := os.Create(out)
	if err != nil {
		log.Fatalln(err)
	}
	defer file.Close()
	w := canlog.NewWriter(file)

	glog.Infof("capturing %s to %s", device, out)
	captured := 0
	for count == 0 || captured < count {
		msgs := session.Receive()
		if len(msgs) == 0 {
			continue
		}
		if err := w.Write(msgs...); err != nil {
			log.Fatalln(err)
		}
		captured += len(msgs)
		glog.V(1).Infof("captured %d message(s)", captured)
	}
	glog.Infof("done, %d message(s)", captured)
}
