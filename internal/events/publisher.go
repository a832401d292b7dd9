package events

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/gurutech/guru-erp/internal/models"
)

// TicketEvent is pushed to field-technician devices when a ticket changes
// hands or state.
type TicketEvent struct {
	TicketID     string              `json:"ticketId"`
	CustomerName string              `json:"customerName"`
	Status       models.TicketStatus `json:"status"`
	TechnicianID string              `json:"technicianId,omitempty"`
	Timestamp    time.Time           `json:"timestamp"`
}

// Publisher delivers ticket lifecycle events. Publishing is best-effort:
// a failed publish never fails the mutation that produced it.
type Publisher interface {
	PublishTicketEvent(event TicketEvent)
}

// NopPublisher discards all events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishTicketEvent(TicketEvent) {}

// MQTTPublisher publishes ticket events to an MQTT broker, one topic per
// ticket under the erp/tickets prefix.
type MQTTPublisher struct {
	client mqtt.Client
}

// NewMQTTPublisher connects to the broker at the given URL.
func NewMQTTPublisher(brokerURL string) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID("guru-erp-server").
		SetConnectTimeout(5 * time.Second).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		return nil, fmt.Errorf("mqtt connect timeout: %s", brokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect error: %w", err)
	}
	return &MQTTPublisher{client: client}, nil
}

// PublishTicketEvent publishes the event fire-and-forget at QoS 0.
func (p *MQTTPublisher) PublishTicketEvent(event TicketEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.WithError(err).Error("Failed to marshal ticket event")
		return
	}
	topic := fmt.Sprintf("erp/tickets/%s", event.TicketID)
	token := p.client.Publish(topic, 0, false, payload)
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			log.WithError(err).WithField("topic", topic).Warn("Failed to publish ticket event")
		}
	}()
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
