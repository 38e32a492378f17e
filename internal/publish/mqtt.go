// Package publish pushes finished report lines to plant dashboards over MQTT.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"github.com/ukydev/fleet-maintenance/internal/report"
)

// ErrPublishTimeout is returned when the broker does not acknowledge in time.
var ErrPublishTimeout = errors.New("mqtt publish timed out")

// Publisher delivers a completed report somewhere outside the service.
type Publisher interface {
	PublishReport(ctx context.Context, rep *report.Report) error
}

// TokenPublisher is the part of mqtt.Client the publisher needs.
type TokenPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Message is the payload sent for each asset summary.
type Message struct {
	ReportID    string                         `json:"report_id"`
	Start       time.Time                      `json:"start"`
	End         time.Time                      `json:"end"`
	GeneratedAt time.Time                      `json:"generated_at"`
	Summary     models.AssetMaintenanceSummary `json:"summary"`
}

// MQTTPublisher publishes one retained message per asset to
// {topic}/{plant_id}/{asset_id}.
type MQTTPublisher struct {
	client  TokenPublisher
	topic   string
	qos     byte
	timeout time.Duration
}

// NewMQTTPublisher wraps an already connected client.
func NewMQTTPublisher(client TokenPublisher, topic string) *MQTTPublisher {
	return &MQTTPublisher{client: client, topic: topic, qos: 1, timeout: 5 * time.Second}
}

// Connect opens a client connection to broker.
func Connect(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)
	c := mqtt.NewClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect to mqtt broker %s: %w", broker, token.Error())
	}
	return c, nil
}

// Topic returns the topic a summary is published to.
func (p *MQTTPublisher) Topic(s models.AssetMaintenanceSummary) string {
	return fmt.Sprintf("%s/%s/%s", p.topic, s.PlantID, s.AssetID)
}

// PublishReport sends every summary. It stops at the first failure or when
// ctx is done.
func (p *MQTTPublisher) PublishReport(ctx context.Context, rep *report.Report) error {
	for _, s := range rep.Summaries {
		if err := ctx.Err(); err != nil {
			return err
		}
		payload, err := json.Marshal(Message{
			ReportID:    rep.ID,
			Start:       rep.Start,
			End:         rep.End,
			GeneratedAt: rep.GeneratedAt,
			Summary:     s,
		})
		if err != nil {
			return fmt.Errorf("marshal summary %s: %w", s.AssetID, err)
		}

		topic := p.Topic(s)
		token := p.client.Publish(topic, p.qos, true, payload)
		if !token.WaitTimeout(p.timeout) {
			return fmt.Errorf("%w: %s", ErrPublishTimeout, topic)
		}
		if err := token.Error(); err != nil {
			return fmt.Errorf("publish %s: %w", topic, err)
		}
	}
	log.WithFields(log.Fields{
		"report_id": rep.ID,
		"messages":  len(rep.Summaries),
	}).Debug("Report published")
	return nil
}
