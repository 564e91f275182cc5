// canmqtt bridges the CAN adapter to an MQTT broker: every received
// message is published to <prefix>/<bus>/<id-hex>.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	"github.com/cankit/ftcan/pkg/adapter"
	"github.com/cankit/ftcan/pkg/can"
	"github.com/cankit/ftcan/pkg/transport"
)

var (
	device  string
	baud    = transport.DefaultBaudRate
	mqttURL = "mqtt://localhost:1883/can/"
)

func init() {
	if val := os.Getenv("CANMQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&device, "device", device, "Serial device of the adapter.")
	flag.IntVar(&baud, "baud", baud, "Serial baud rate.")
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

// clientOptionsFromURL splits a broker URL into paho options and the
// topic prefix carried in the URL path.
func clientOptionsFromURL(serverURL string) (*paho.ClientOptions, string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, "", err
	}
	scheme := u.Scheme
	if scheme == "" || scheme == "mqtt" {
		scheme = "tcp"
	}
	opts := paho.NewClientOptions()
	opts.AddBroker(scheme + "://" + u.Host).
		SetAutoReconnect(true).
		SetCleanSession(true)
	if u.User != nil {
		opts.SetUsername(u.User.Username())
		if pwd, ok := u.User.Password(); ok {
			opts.SetPassword(pwd)
		}
	}
	prefix := strings.Trim(u.Path, "/")
	return opts, prefix, nil
}

func topicFor(prefix string, m can.Message) string {
	topic := fmt.Sprintf("%d/%X", m.Bus, m.ID)
	if prefix != "" {
		topic = prefix + "/" + topic
	}
	return topic
}

func payloadFor(m can.Message) []byte {
	ext := 0
	if m.Extended {
		ext = 1
	}
	return []byte(fmt.Sprintf(`{"id":"%X","bus":%d,"ext":%d,"data":"%s","time":%d}`,
		m.ID, m.Bus, ext, hex.EncodeToString(m.Data), m.Time.UnixMicro()))
}

func main() {
	flag.Parse()
	if device == "" {
		log.Fatalln("-device is required")
	}

	opts, prefix, err := clientOptionsFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	client := paho.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}

	session := adapter.New()
	if err := session.Connect(device, baud); err != nil {
		log.Fatalln(err)
	}
	defer session.Close()
	glog.Infof("bridging %s (firmware %s) to %s", device, session.Version(), mqttURL)

	heartbeat := time.NewTicker(time.Second)
	defer heartbeat.Stop()
	for {
		select {
		case <-heartbeat.C:
			if !session.Heartbeat() {
				glog.Warning("heartbeat got no response")
			}
		default:
			for _, m := range session.Receive() {
				token := client.Publish(topicFor(prefix, m), 0, false, payloadFor(m))
				if token.Wait() && token.Error() != nil {
					glog.Errorf("publish: %v", token.Error())
				}
			}
		}
	}
}
