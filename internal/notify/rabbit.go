// README: RabbitMQ proposal notification publisher.
package notify

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"shiftmatch/internal/modules/shift"
	"shiftmatch/internal/modules/worker"
)

const (
	routingKeyAutomatic  = "proposal.sent"
	routingKeySelfSelect = "proposal.self_select"
)

// RabbitNotifier publishes proposal notifications to a topic exchange.
// Downstream consumers (push, SMS, email) bind their own queues.
type RabbitNotifier struct {
	ch       *amqp.Channel
	exchange string
}

func NewRabbitNotifier(ch *amqp.Channel, exchange string) *RabbitNotifier {
	return &RabbitNotifier{ch: ch, exchange: exchange}
}

// proposalMessage is the wire format consumers see.
type proposalMessage struct {
	ProposalID   string    `json:"proposal_id"`
	ShiftID      string    `json:"shift_id"`
	WorkerID     string    `json:"worker_id"`
	WorkerName   string    `json:"worker_name"`
	ClientID     string    `json:"client_id"`
	ServiceType  string    `json:"service_type"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Score        float64   `json:"score"`
	Quality      string    `json:"quality"`
	MatchReasons []string  `json:"match_reasons"`
	Urgent       bool      `json:"urgent"`
	ExpiresFrom  time.Time `json:"expires_from"`
}

func (n *RabbitNotifier) NotifyProposal(ctx context.Context, p *shift.AssignmentProposal, w *worker.Worker, s *shift.OpenShift) error {
	msg := proposalMessage{
		ProposalID:   string(p.ID),
		ShiftID:      string(s.ID),
		WorkerID:     string(w.ID),
		WorkerName:   w.Name(),
		ClientID:     string(s.ClientID),
		ServiceType:  s.ServiceType,
		StartTime:    s.StartTime,
		EndTime:      s.EndTime,
		Score:        p.Score,
		Quality:      string(p.Quality),
		MatchReasons: p.MatchReasons,
		Urgent:       s.Urgent,
		ExpiresFrom:  p.ExpiryReference(),
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	key := routingKeyAutomatic
	if p.Method == shift.MethodSelfSelect {
		key = routingKeySelfSelect
	}
	var priority uint8
	if s.Urgent {
		priority = 5
	}
	return n.ch.PublishWithContext(ctx, n.exchange, key, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Priority:     priority,
		Timestamp:    time.Now().UTC(),
		ContentType:  "application/json",
		Body:         body,
	})
}
