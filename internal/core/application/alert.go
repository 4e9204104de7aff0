package application

import (
	"context"
	"time"

	"github.com/sanchit-4/universal-nft/internal/core/domain"
	"github.com/sanchit-4/universal-nft/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

// publishAlertsAfterEvents reacts to the latest event of an asset history.
func (s *service) publishAlertsAfterEvents(events []domain.Event) {
	if len(events) <= 0 {
		return
	}

	switch e := events[len(events)-1].(type) {
	case domain.OutboundEmissionFailed:
		alert := ports.OutboundEmissionFailedAlert{
			EmissionID:         e.EmissionID,
			Asset:              e.Id,
			DestinationChainID: e.DestinationChainID,
			Reason:             e.Reason,
		}
		for _, ev := range events {
			if locked, ok := ev.(domain.AssetLocked); ok {
				alert.Sender = locked.Holder
			}
		}
		s.publishAlert(ports.OutboundEmissionFailed, alert)
	case domain.AssetMinted:
		s.publishAlert(ports.AssetMinted, map[string]any{
			"asset":     e.Id,
			"recipient": e.Recipient,
			"origin":    e.OriginChainID,
		})
	}
}

func (s *service) publishAlert(topic ports.Topic, message any) {
	if s.alerts == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.alerts.Publish(ctx, topic, message); err != nil {
		log.WithError(err).WithField("topic", topic).Warn("failed to publish alert")
	}
}
