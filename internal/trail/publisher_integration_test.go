//go:build integration

package trail_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"attest/internal/trail"
	id "attest/pkg/domain"
	"attest/pkg/testutil/containers"
)

type KafkaPublisherSuite struct {
	suite.Suite
	kafka *containers.KafkaContainer
}

func TestKafkaPublisherSuite(t *testing.T) {
	suite.Run(t, new(KafkaPublisherSuite))
}

func (s *KafkaPublisherSuite) SetupSuite() {
	s.kafka = containers.NewKafkaContainer(s.T())
}

func (s *KafkaPublisherSuite) consume(topic string, want int) []*kgo.Record {
	s.T().Helper()
	client, err := kgo.NewClient(
		kgo.SeedBrokers(s.kafka.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer client.Close()

	var records []*kgo.Record
	deadline := time.Now().Add(30 * time.Second)
	for len(records) < want && time.Now().Before(deadline) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		fetches := client.PollFetches(ctx)
		cancel()
		fetches.EachRecord(func(record *kgo.Record) {
			records = append(records, record)
		})
	}
	s.Require().Len(records, want, "expected %d records on %s", want, topic)
	return records
}

func (s *KafkaPublisherSuite) TestPublishKeysByAudit() {
	ctx := context.Background()
	topic := "attest.audit-trail.publish-test"
	publisher, err := trail.NewKafkaPublisher(ctx, s.kafka.Brokers, topic)
	s.Require().NoError(err)
	defer publisher.Close()

	auditID := id.NewAuditID()
	first := trail.Entry{ID: uuid.New(), AuditID: auditID, EventType: "audit.created"}
	second := trail.Entry{ID: uuid.New(), AuditID: auditID, EventType: "audit.status_changed"}
	s.Require().NoError(publisher.Publish(ctx, first))
	s.Require().NoError(publisher.Publish(ctx, second))

	records := s.consume(topic, 2)
	for _, record := range records {
		s.Equal(auditID.String(), string(record.Key))
	}

	var decoded trail.Entry
	s.Require().NoError(json.Unmarshal(records[0].Value, &decoded))
	s.Equal(first.ID, decoded.ID)
	var decodedSecond trail.Entry
	s.Require().NoError(json.Unmarshal(records[1].Value, &decodedSecond))
	s.Equal(second.ID, decodedSecond.ID)
}

func (s *KafkaPublisherSuite) TestExistingTopicIsNotAnError() {
	ctx := context.Background()
	topic := "attest.audit-trail.idempotent-test"

	first, err := trail.NewKafkaPublisher(ctx, s.kafka.Brokers, topic)
	s.Require().NoError(err)
	first.Close()

	second, err := trail.NewKafkaPublisher(ctx, s.kafka.Brokers, topic)
	s.Require().NoError(err)
	second.Close()
}
