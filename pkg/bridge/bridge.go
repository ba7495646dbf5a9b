// Package bridge publishes link traffic to an MQTT broker and injects
// messages sent back from it. It exists for bench debugging: a developer can
// watch every inbound message of a running link and drive its channels
// remotely.
package bridge

import (
	"context"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"

	"github.com/twinsoc/fifolink/pkg/bridge/mqtt"
	"github.com/twinsoc/fifolink/pkg/bridge/msgs"
	"github.com/twinsoc/fifolink/pkg/fifo"
)

// Origin returns the stable identity used in bridge topics for this host.
func Origin() string {
	id, err := machineid.ID()
	if err != nil {
		panic(err)
	}
	return id
}

// Bridge taps a link and connects it to an MQTT queue.
//
// Topics, under the queue's prefix:
//
//	link/<origin>/rx   published for every reassembled inbound message
//	link/<origin>/tx   subscribed; payloads are WordEvents to send
type Bridge struct {
	Queue  *mqtt.Queue
	Link   *fifo.Link
	Origin string
}

// New creates a Bridge with the default origin.
func New(q *mqtt.Queue, link *fifo.Link) *Bridge {
	return &Bridge{Queue: q, Link: link, Origin: Origin()}
}

// Attach installs the bridge as the link's tap.
func (b *Bridge) Attach() *Bridge {
	b.Link.Tap = fifo.TapFunc(b.publish)
	return b
}

func (b *Bridge) publish(in fifo.Inbound) {
	payload, err := msgs.FromInbound(b.Origin, in).Encode()
	if err != nil {
		glog.Errorf("encode event: %v", err)
		return
	}
	b.Queue.Pub("link/"+b.Origin+"/rx", payload)
}

// Run implements run.Runnable. It serves injections until the context is
// canceled.
func (b *Bridge) Run(ctx context.Context) error {
	sub := b.Queue.Sub("link/"+b.Origin+"/tx", mqtt.Handler(b.handleInject))
	defer sub.Close()
	<-ctx.Done()
	return ctx.Err()
}

func (b *Bridge) handleInject(_ string, payload []byte) {
	ev, err := msgs.Decode(payload)
	if err != nil {
		glog.Warningf("bad inject payload: %v", err)
		return
	}
	ch := fifo.Channel(ev.Channel)
	switch fifo.Kind(ev.Kind) {
	case fifo.KindValue32:
		err = b.Link.SendValue32(ch, ev.Value)
	case fifo.KindAddress:
		err = b.Link.SendAddress(ch, ev.Value)
	case fifo.KindData:
		err = b.Link.SendData(ch, ev.Data)
	case fifo.KindCommand:
		err = b.Link.SendCommand(ev.Value)
	default:
		glog.Warningf("bad inject kind %d", ev.Kind)
		return
	}
	if err != nil {
		glog.Warningf("inject failed: %v", err)
	}
}
