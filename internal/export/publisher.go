// Package export publishes built flows to NATS for downstream consumers.
package export

import (
	"encoding/json"
	"log"

	"github.com/nats-io/nats.go"

	"s1apflow/internal/core/model"
)

// Publisher publishes flow objects to a NATS subject. Payloads are the
// same JSON objects written to the persisted flow set.
type Publisher struct {
	nc      *nats.Conn
	subject string
}

// NewPublisher connects to the NATS server.
func NewPublisher(url, subject string) (*Publisher, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to NATS server at %s", url)
	return &Publisher{nc: nc, subject: subject}, nil
}

// Publish sends one flow.
func (p *Publisher) Publish(flow *model.Flow) error {
	data, err := json.Marshal(flow)
	if err != nil {
		return err
	}
	return p.nc.Publish(p.subject, data)
}

// PublishAll sends every flow in set order.
func (p *Publisher) PublishAll(flows []*model.Flow) error {
	for _, flow := range flows {
		if err := p.Publish(flow); err != nil {
			return err
		}
	}
	return nil
}

// Close drains and closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
		log.Println("NATS connection drained and closed.")
	}
}
