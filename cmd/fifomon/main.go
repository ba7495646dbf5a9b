package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/twinsoc/fifolink/pkg/bridge/mqtt"
	"github.com/twinsoc/fifolink/pkg/bridge/msgs"
	"github.com/twinsoc/fifolink/pkg/fifo"
)

var (
	mqttURL = "mqtt://localhost:1883/fifolink/"
)

func init() {
	if val := os.Getenv("FIFOLINK_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}

	q.Sub("link/+/+", mqtt.Handler(func(topic string, payload []byte) {
		dir := "rx"
		if strings.HasSuffix(topic, "/tx") {
			dir = "tx"
		}
		ev, err := msgs.Decode(payload)
		if err != nil {
			log.Printf("%s: bad event: %v", topic, err)
			return
		}
		switch fifo.Kind(ev.Kind) {
		case fifo.KindData:
			log.Printf("%s %s ch=%d data % x", ev.Origin, dir, ev.Channel, ev.Data)
		case fifo.KindCommand:
			log.Printf("%s %s command %#x", ev.Origin, dir, ev.Value)
		default:
			log.Printf("%s %s ch=%d %s %#x", ev.Origin, dir, ev.Channel, fifo.Kind(ev.Kind), ev.Value)
		}
	}))
	q.Connect()
	<-(chan struct{})(nil)
}
